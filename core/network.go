package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/symnet/core/lagnet"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// Dataset is a loaded observation table together with the fingerprint of its source.
type Dataset struct {
	Table       *schema.Table
	Fingerprint string
}

// LoadDataset reads the full table from src and computes its fingerprint.
func LoadDataset(ctx context.Context, src contract.ObservationSource) (*Dataset, error) {
	table, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint, err := src.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint data: %w", err)
	}
	return &Dataset{Table: table, Fingerprint: fingerprint}, nil
}

// GetNetworkResult builds, or reads from cache, the temporal symptom network of one subject.
func GetNetworkResult(ctx context.Context, cfg *contract.Config, ds *Dataset, subject string, mgr contract.CacheManager) (*schema.NetworkResult, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	return cachedNetworkResult(ctx, cfg, ds, subject, mgr)
}

// symptomsFor returns the tracked symptom list. An empty config list tracks every column.
func symptomsFor(cfg *contract.Config, table *schema.Table) []string {
	if len(cfg.Symptoms) > 0 {
		return cfg.Symptoms
	}
	return slices.Clone(table.Symptoms)
}

// pipelineOptions translates the validated config into pipeline options.
func pipelineOptions(cfg *contract.Config) lagnet.Options {
	opts := lagnet.DefaultOptions()
	opts.Prepare = lagnet.PrepareOptions{
		Dedup:           cfg.Dedup,
		MaxGap:          cfg.MaxGap,
		MinObservations: cfg.MinObservations,
	}
	opts.Assemble = lagnet.AssembleOptions{
		Workers:     cfg.Workers,
		ExcludeSelf: cfg.ExcludeSelf,
	}
	if cfg.LayoutIterations > 0 {
		opts.Layout.Iterations = cfg.LayoutIterations
	}
	opts.Layout.Seed = cfg.LayoutSeed
	return opts
}

// computeNetworkResult runs the pipeline for one subject and converts the result for rendering.
func computeNetworkResult(ctx context.Context, cfg *contract.Config, ds *Dataset, subject string) (*schema.NetworkResult, error) {
	logger := contract.LoggerFrom(ctx).With("subject", subject)

	res, err := lagnet.BuildSymptomNetwork(ds.Table, subject, symptomsFor(cfg, ds.Table), cfg.Threshold, pipelineOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build network for subject %s: %w", subject, err)
	}

	for _, fit := range res.FailedOutcomes() {
		logger.Warn("outcome unavailable", "outcome", fit.Outcome, "reason", lagnet.FailureDetail(fit.Err))
	}
	logger.Debug("network built", "nodes", len(res.Layout), "edges", len(res.Network.Edges), "lagged_rows", res.LaggedRows)

	return toNetworkResult(res, cfg.Threshold), nil
}

// toNetworkResult converts a pipeline result into its serializable form.
func toNetworkResult(res *lagnet.Result, threshold float64) *schema.NetworkResult {
	return &schema.NetworkResult{
		Subject:      res.Subject,
		Title:        fmt.Sprintf("Temporal symptom network: %s", res.Subject),
		Threshold:    threshold,
		Observations: res.Observations,
		LaggedRows:   res.LaggedRows,
		Nodes:        res.Layout,
		Edges:        res.Network.Edges,
		Matrix:       toCoefficientTable(res),
		Warnings:     res.Warnings,
	}
}

// toCoefficientTable copies the matrix into rows of optional values.
func toCoefficientTable(res *lagnet.Result) schema.CoefficientTable {
	m := res.Matrix
	table := schema.CoefficientTable{
		Symptoms: m.Symptoms(),
		Rows:     make([]schema.CoefficientRow, m.Size()),
	}
	for i, outcome := range table.Symptoms {
		row := schema.CoefficientRow{
			Outcome:   outcome,
			Estimated: m.Estimated(i),
			Values:    make([]*float64, m.Size()),
		}
		if i < len(res.Fits) {
			fit := res.Fits[i]
			row.Rows = fit.Rows
			row.RSquared = fit.RSquared
			row.Reason = lagnet.FailureReason(fit.Err)
		}
		if row.Estimated {
			intercept := m.Intercept(i)
			row.Intercept = &intercept
		}
		for j := range m.Size() {
			if v := m.At(i, j); !schema.IsAbsent(v) {
				row.Values[j] = &v
			}
		}
		table.Rows[i] = row
	}
	return table
}
