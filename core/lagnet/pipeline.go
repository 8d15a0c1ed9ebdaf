// Package lagnet estimates temporal symptom networks from one subject's
// repeated self-reports. A lag-1 vector autoregression is fit by ordinary least
// squares per outcome, thresholded into a directed weighted graph and laid out
// for rendering.
//
// The stages are pure functions and hold no global state:
//
//	Prepare -> Assemble (Estimate per outcome) -> Build -> Plan
package lagnet

import (
	"fmt"

	"github.com/huangsam/symnet/schema"
)

// Options bundles the parameters of every stage.
type Options struct {
	Prepare  PrepareOptions
	Assemble AssembleOptions
	Layout   LayoutOptions
}

// DefaultOptions returns the standard settings for a single-subject network.
func DefaultOptions() Options {
	return Options{
		Prepare:  PrepareOptions{Dedup: schema.DedupNone, MinObservations: DefaultMinObservations},
		Assemble: AssembleOptions{Workers: 1},
		Layout:   DefaultLayoutOptions(),
	}
}

// Result is everything the pipeline derived for one subject.
type Result struct {
	Subject      string
	Symptoms     []string // Tracked symptoms after filtering
	Observations int      // Rows in the subject's series
	LaggedRows   int      // Rows in the lagged frame
	Matrix       *CoefficientMatrix
	Fits         []OutcomeFit
	Network      *Network
	Layout       []schema.NodeLayout
	Warnings     []string
}

// FailedOutcomes returns the fits that produced no estimates.
func (r *Result) FailedOutcomes() []OutcomeFit {
	var out []OutcomeFit
	for _, f := range r.Fits {
		if !f.OK() {
			out = append(out, f)
		}
	}
	return out
}

// BuildSymptomNetwork runs the whole pipeline for one subject.
// Fatal problems (bad threshold, empty subject, no tracked symptoms) are returned
// as errors. Per-outcome failures become absent matrix rows and warnings.
func BuildSymptomNetwork(table *schema.Table, subject string, symptoms []string, threshold float64, opts Options) (*Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	prepared, err := Prepare(table, subject, symptoms, opts.Prepare)
	if err != nil {
		return nil, err
	}
	tracked := prepared.Series.Symptoms()

	matrix, fits := Assemble(prepared.Frame, tracked, opts.Assemble)
	net, err := Build(matrix, threshold)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Subject:      subject,
		Symptoms:     tracked,
		Observations: prepared.Series.Len(),
		LaggedRows:   prepared.Frame.Rows(),
		Matrix:       matrix,
		Fits:         fits,
		Network:      net,
		Layout:       Plan(net, opts.Layout),
		Warnings:     prepared.Warnings,
	}
	for _, f := range fits {
		if !f.OK() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("outcome %s unavailable (%s)", f.Outcome, FailureDetail(f.Err)))
		}
	}
	return res, nil
}
