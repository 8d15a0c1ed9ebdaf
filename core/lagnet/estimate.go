package lagnet

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MaxConditionNumber is the largest design-matrix condition number accepted for a fit.
const MaxConditionNumber = 1e10

// MinRows returns the usable-row floor for a regression with the given number of predictors.
func MinRows(predictors int) int {
	return max(predictors+2, 5)
}

// OutcomeFit is the result of regressing one outcome on the lagged predictors.
type OutcomeFit struct {
	Outcome      string
	Predictors   []string
	Coefficients map[string]float64 // Lag-1 effect per predictor; empty on failure
	Intercept    float64
	RSquared     float64
	Rows         int   // Usable rows
	Err          error // Non-nil when no estimates were produced
}

// OK reports whether the fit produced estimates.
func (f OutcomeFit) OK() bool { return f.Err == nil }

// Estimate fits outcome(t) = b0 + sum_j b_j * predictor_j(t-1) by ordinary least squares.
// Rows with a missing outcome or lag are dropped first. Failures are reported through
// OutcomeFit.Err as an *EstimationError and never panic.
func Estimate(frame *LaggedFrame, outcome string, predictors []string) OutcomeFit {
	fit := OutcomeFit{Outcome: outcome, Predictors: slices.Clone(predictors)}
	fail := func(err error) OutcomeFit {
		fit.Err = &EstimationError{Outcome: outcome, Err: err}
		return fit
	}

	if frame == nil {
		return fail(fmt.Errorf("%w: no lagged rows", ErrInsufficientData))
	}
	for _, col := range append([]string{outcome}, predictors...) {
		if !frame.Has(col) {
			return fail(fmt.Errorf("%w: %w: %s", ErrEstimationFailed, ErrUnknownColumn, col))
		}
	}

	rows := frame.CompleteRows(outcome, predictors)
	fit.Rows = len(rows)
	if floor := MinRows(len(predictors)); len(rows) < floor {
		return fail(fmt.Errorf("%w: %d usable rows, need %d", ErrInsufficientData, len(rows), floor))
	}

	k := len(predictors) + 1
	x := mat.NewDense(len(rows), k, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		x.Set(i, 0, 1)
		for j, p := range predictors {
			x.Set(i, j+1, frame.LagValue(r, p))
		}
		y.SetVec(i, frame.Value(r, outcome))
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return fail(fmt.Errorf("%w: %w", ErrEstimationFailed, ErrNonConvergence))
	}
	if cond := svd.Cond(); !(cond <= MaxConditionNumber) {
		fit.Err = &EstimationError{
			Outcome:  outcome,
			Err:      fmt.Errorf("%w: %w: condition number %.3g", ErrEstimationFailed, ErrSingularDesign, cond),
			Constant: constantLags(frame, rows, predictors),
		}
		return fit
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, k)
	for i := range k {
		if v := beta.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return fail(fmt.Errorf("%w: %w: non-finite coefficient", ErrEstimationFailed, ErrSingularDesign))
		}
	}

	fit.Intercept = beta.AtVec(0)
	fit.Coefficients = make(map[string]float64, len(predictors))
	for j, p := range predictors {
		fit.Coefficients[p] = beta.AtVec(j + 1)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	r2 := stat.RSquaredFrom(fitted.RawVector().Data, y.RawVector().Data, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}
	fit.RSquared = r2
	return fit
}

// constantLags returns the predictors whose lagged value is the same on every row.
func constantLags(frame *LaggedFrame, rows []int, predictors []string) []string {
	var out []string
	for _, p := range predictors {
		first := frame.LagValue(rows[0], p)
		if !slices.ContainsFunc(rows[1:], func(r int) bool { return frame.LagValue(r, p) != first }) {
			out = append(out, p)
		}
	}
	return out
}
