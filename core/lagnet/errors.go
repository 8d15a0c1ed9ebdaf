package lagnet

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned or wrapped by the pipeline stages.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrEstimationFailed = errors.New("estimation failed")
	ErrSingularDesign   = errors.New("singular design matrix")
	ErrNonConvergence   = errors.New("factorization did not converge")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrEmptySubject     = errors.New("subject has no observations")
	ErrNoSymptoms       = errors.New("no tracked symptom is present in the table")
	ErrInvalidThreshold = errors.New("threshold must be a real number >= 0")
)

// EstimationError records why the regression for one outcome produced no estimates.
type EstimationError struct {
	Outcome  string
	Err      error
	Constant []string // Lagged predictors without variance, set on a singular design
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("outcome %s: %v", e.Outcome, e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }

// Reason returns a short label for the failure class.
func (e *EstimationError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrInsufficientData):
		return "insufficient data"
	case errors.Is(e.Err, ErrSingularDesign):
		return "singular design"
	case errors.Is(e.Err, ErrNonConvergence):
		return "non-convergence"
	case errors.Is(e.Err, ErrUnknownColumn):
		return "unknown column"
	default:
		return "estimation failed"
	}
}

// FailureReason returns the short label of an outcome failure, or an empty string for nil.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	var ee *EstimationError
	if errors.As(err, &ee) {
		return ee.Reason()
	}
	return err.Error()
}

// FailureDetail is FailureReason plus the constant predictors behind a singular design.
func FailureDetail(err error) string {
	reason := FailureReason(err)
	var ee *EstimationError
	if errors.As(err, &ee) && len(ee.Constant) > 0 {
		return fmt.Sprintf("%s; constant lagged predictor: %s", reason, strings.Join(ee.Constant, ", "))
	}
	return reason
}
