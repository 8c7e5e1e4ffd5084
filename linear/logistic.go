package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/model"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// LogisticRegression is a binary classifier fitted by weighted gradient
// descent on the log loss. Per-row sample weights let callers correct for
// class imbalance; BalancedWeights computes the usual inverse-class-frequency
// weighting.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	c           float64 // inverse L2 regularization strength
	maxIter     int
	tol         float64
	classWeight string // "none" or "balanced"

	// Fitted parameters
	coef      []float64
	intercept float64
	classes   [2]float64 // sorted ascending; classes[1] is the positive class
	nFeatures int
}

// LogisticOption configures a LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse regularization strength (larger is weaker).
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithMaxIter sets the maximum number of gradient descent iterations.
func WithMaxIter(maxIter int) LogisticOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithTol sets the gradient-norm stopping tolerance.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithBalancedWeights makes Fit weight each row by the inverse frequency of
// its class, unless explicit weights are passed to FitWeighted.
func WithBalancedWeights() LogisticOption {
	return func(lr *LogisticRegression) { lr.classWeight = "balanced" }
}

// NewLogisticRegression creates a classifier with the default
// hyperparameters (C=1, 1000 iterations, tolerance 1e-6).
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		c:           1.0,
		maxIter:     1000,
		tol:         1e-6,
		classWeight: "none",
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit trains on X, y. With the balanced option set, rows are weighted by
// inverse class frequency; otherwise all rows weigh 1.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	var weights []float64
	if lr.classWeight == "balanced" {
		var err error
		if weights, err = BalancedWeights(y); err != nil {
			return err
		}
	}
	return lr.FitWeighted(X, y, weights)
}

// FitWeighted trains with explicit per-row weights. A nil slice means
// uniform weights. The target must hold exactly two distinct values.
func (lr *LogisticRegression) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if sampleWeight != nil && len(sampleWeight) != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, len(sampleWeight), 0)
	}

	classes, err := binaryClasses(y)
	if err != nil {
		return err
	}
	lr.classes = classes
	lr.nFeatures = nFeatures

	// Recode the target to 0/1 against the positive class.
	target := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.At(i, 0) == lr.classes[1] {
			target[i] = 1
		}
	}

	weights := sampleWeight
	if weights == nil {
		weights = make([]float64, nSamples)
		for i := range weights {
			weights[i] = 1
		}
	}
	var totalWeight float64
	for _, w := range weights {
		if w < 0 {
			return errors.NewValidationError("sampleWeight", "must be non-negative", w)
		}
		totalWeight += w
	}
	if totalWeight == 0 {
		return errors.NewValidationError("sampleWeight", "must not sum to zero", totalWeight)
	}

	lr.coef = make([]float64, nFeatures)
	lr.intercept = 0

	baseLearningRate := 1.0
	lambda := 1.0 / lr.c

	for iter := 0; iter < lr.maxIter; iter++ {
		gradCoef := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := weights[i] * (sigmoid(z) - target[i])
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradCoef[j] += residual * X.At(i, j)
			}
		}

		for j := range gradCoef {
			gradCoef[j] = gradCoef[j]/totalWeight + lambda*lr.coef[j]/float64(nSamples)
		}
		gradIntercept /= totalWeight

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef {
			lr.coef[j] -= learningRate * gradCoef[j]
		}
		lr.intercept -= learningRate * gradIntercept

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradCoef {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	lr.SetFitted()
	return nil
}

// Predict returns the predicted class labels as an n-by-1 matrix, using the
// 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := proba.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if proba.At(i, 1) >= 0.5 {
			predictions.Set(i, 0, lr.classes[1])
		} else {
			predictions.Set(i, 0, lr.classes[0])
		}
	}
	return predictions, nil
}

// PredictProba returns an n-by-2 matrix of class probabilities, negative
// class in column 0 and positive class in column 1.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, c, 1)
	}

	probas := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		z := lr.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		p := sigmoid(z)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the two class labels, ascending. The second is the
// positive class of PredictProba's column 1.
func (lr *LogisticRegression) Classes() [2]float64 {
	return lr.classes
}

// BalancedWeights computes inverse-class-frequency weights for a binary
// target: each row gets n / (2 * count(itsClass)), so both classes
// contribute equal total weight.
func BalancedWeights(y mat.Matrix) ([]float64, error) {
	rows, _ := y.Dims()
	if rows == 0 {
		return nil, errors.NewModelError("BalancedWeights", "empty target", errors.ErrEmptyData)
	}

	counts := make(map[float64]int)
	for i := 0; i < rows; i++ {
		counts[y.At(i, 0)]++
	}
	if len(counts) != 2 {
		return nil, errors.NewValueError("BalancedWeights", "target must have exactly 2 distinct classes")
	}

	weights := make([]float64, rows)
	for i := 0; i < rows; i++ {
		weights[i] = float64(rows) / (2 * float64(counts[y.At(i, 0)]))
	}
	return weights, nil
}

func binaryClasses(y mat.Matrix) ([2]float64, error) {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	for i := 0; i < rows; i++ {
		seen[y.At(i, 0)] = true
	}
	if len(seen) != 2 {
		return [2]float64{}, errors.NewValueError("LogisticRegression.Fit",
			"target must have exactly 2 distinct classes")
	}

	var classes [2]float64
	first := true
	for v := range seen {
		if first {
			classes[0] = v
			first = false
		} else {
			classes[1] = v
		}
	}
	if classes[0] > classes[1] {
		classes[0], classes[1] = classes[1], classes[0]
	}
	return classes, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
