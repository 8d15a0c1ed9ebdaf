package lagnet

import (
	"slices"

	"github.com/huangsam/symnet/schema"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// AssembleOptions controls the per-outcome fan-out.
type AssembleOptions struct {
	Workers     int  // Concurrent regressions (values < 1 run sequentially)
	ExcludeSelf bool // Drop each outcome from its own predictor list
}

// CoefficientMatrix is the square outcome by predictor matrix of lag-1 effects.
// Absent cells hold NaN. A failed outcome has an entirely absent row.
type CoefficientMatrix struct {
	symptoms   []string
	index      map[string]int
	data       *mat.Dense
	estimated  []bool
	intercepts []float64
}

// NewCoefficientMatrix returns an all-absent matrix over the symptoms.
func NewCoefficientMatrix(symptoms []string) *CoefficientMatrix {
	k := len(symptoms)
	m := &CoefficientMatrix{
		symptoms:   slices.Clone(symptoms),
		index:      make(map[string]int, k),
		estimated:  make([]bool, k),
		intercepts: make([]float64, k),
	}
	for i, s := range symptoms {
		m.index[s] = i
		m.intercepts[i] = schema.Absent()
	}
	if k > 0 {
		m.data = mat.NewDense(k, k, nil)
		for i := range k {
			for j := range k {
				m.data.Set(i, j, schema.Absent())
			}
		}
	}
	return m
}

// Size returns the number of symptoms on each axis.
func (m *CoefficientMatrix) Size() int { return len(m.symptoms) }

// Symptoms returns the axis labels in order.
func (m *CoefficientMatrix) Symptoms() []string { return slices.Clone(m.symptoms) }

// At returns the cell for outcome row i and predictor column j.
func (m *CoefficientMatrix) At(i, j int) float64 { return m.data.At(i, j) }

// Lookup returns the effect of predictor on outcome and whether it is present.
func (m *CoefficientMatrix) Lookup(outcome, predictor string) (float64, bool) {
	i, ok := m.index[outcome]
	if !ok {
		return schema.Absent(), false
	}
	j, ok := m.index[predictor]
	if !ok {
		return schema.Absent(), false
	}
	v := m.data.At(i, j)
	return v, !schema.IsAbsent(v)
}

// Row returns a copy of outcome row i.
func (m *CoefficientMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Estimated reports whether outcome row i came from a successful fit.
func (m *CoefficientMatrix) Estimated(i int) bool { return m.estimated[i] }

// Intercept returns the intercept of outcome row i, or NaN when absent.
func (m *CoefficientMatrix) Intercept(i int) float64 { return m.intercepts[i] }

// Dense returns a copy of the underlying matrix, or nil when it has no symptoms.
func (m *CoefficientMatrix) Dense() *mat.Dense {
	if m.data == nil {
		return nil
	}
	return mat.DenseCopyOf(m.data)
}

func (m *CoefficientMatrix) setRow(i int, fit OutcomeFit) {
	if !fit.OK() {
		return
	}
	m.estimated[i] = true
	m.intercepts[i] = fit.Intercept
	for p, v := range fit.Coefficients {
		if j, ok := m.index[p]; ok {
			m.data.Set(i, j, v)
		}
	}
}

// predictorsFor returns the predictor list for outcome i.
func predictorsFor(symptoms []string, i int, excludeSelf bool) []string {
	if !excludeSelf {
		return symptoms
	}
	out := make([]string, 0, len(symptoms)-1)
	out = append(out, symptoms[:i]...)
	return append(out, symptoms[i+1:]...)
}

// Assemble runs one regression per outcome and collects the coefficients into a matrix.
// Fits run on a bounded worker pool and are stored by outcome index, so the
// result does not depend on completion order.
func Assemble(frame *LaggedFrame, symptoms []string, opts AssembleOptions) (*CoefficientMatrix, []OutcomeFit) {
	m := NewCoefficientMatrix(symptoms)
	fits := make([]OutcomeFit, len(symptoms))
	if len(symptoms) == 0 {
		return m, fits
	}

	var g errgroup.Group
	g.SetLimit(min(max(opts.Workers, 1), len(symptoms)))
	for i := range symptoms {
		g.Go(func() error {
			fits[i] = Estimate(frame, symptoms[i], predictorsFor(symptoms, i, opts.ExcludeSelf))
			return nil
		})
	}
	_ = g.Wait() // Estimate reports failures through OutcomeFit.Err

	for i, fit := range fits {
		m.setRow(i, fit)
	}
	return m, fits
}
