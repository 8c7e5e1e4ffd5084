// Package model holds the shared estimator plumbing embedded by every
// fittable type in this repository.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted is the zero state of every estimator.
	NotFitted EstimatorState = iota
	// Fitted marks an estimator whose Fit completed successfully.
	Fitted
)

// BaseEstimator is embedded by all models and transformers. A fitted model
// is immutable by convention; Reset exists for reuse in cross-validation.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
