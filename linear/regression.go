// Package linear implements the two parametric model families used by the
// pipeline: ordinary least squares regression and binary logistic
// regression with per-row sample weights.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/model"
	"github.com/cd-at-willamette/autompg/core/parallel"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// LinearRegression fits ordinary least squares via the normal equations
// w = (X^T X)^-1 X^T y. The fit is deterministic: the same training matrix
// always yields the same coefficients.
type LinearRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense
	Intercept float64
	NFeatures int
}

// NewLinearRegression creates an unfitted model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit estimates the coefficients from training data. y must be a column
// vector; the training matrix must have at least one more row than it has
// predictor columns, otherwise the system is underdetermined.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if r < c+1 {
		return errors.NewValueError("LinearRegression.Fit",
			"training matrix has fewer rows than predictor columns + 1")
	}

	lr.NFeatures = c

	// Prepend the intercept column: X_with_intercept = [1, X].
	XWithIntercept := mat.NewDense(r, c+1, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	lr.Intercept = weights.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, weights.AtVec(i+1))
	}

	lr.SetFitted()
	return nil
}

// Predict returns the fitted values for X as an n-by-1 matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Coefficients returns a copy of the fitted weights.
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.Weights == nil {
		return nil
	}
	coefs := make([]float64, lr.Weights.Len())
	for i := range coefs {
		coefs[i] = lr.Weights.AtVec(i)
	}
	return coefs
}

// Score computes R-squared on the given data.
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		yPredVal := yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPredVal) * (yTrue - yPredVal)
	}

	if tss == 0 {
		return 0, errors.NewDegenerateMetricError("r2", "no variance in y")
	}
	return 1 - rss/tss, nil
}
