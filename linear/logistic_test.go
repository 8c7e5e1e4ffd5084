package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// separableXY is a well-separated binary problem around x = 0.
func separableXY() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{-3, -2.5, -2, -1.5, 1.5, 2, 2.5, 3})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLogisticRegressionSeparable(t *testing.T) {
	X, y := separableXY()

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("row %d predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestLogisticRegressionProba(t *testing.T) {
	X, y := separableXY()

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	proba, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error: %v", err)
	}
	r, c := proba.Dims()
	if r != 8 || c != 2 {
		t.Fatalf("PredictProba() dims = %dx%d, want 8x2", r, c)
	}
	for i := 0; i < r; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if math.Abs(sum-1.0) > 1e-10 {
			t.Errorf("row %d probabilities sum to %v, want 1", i, sum)
		}
	}
	// More extreme inputs must be scored more confidently.
	if proba.At(7, 1) <= proba.At(4, 1) {
		t.Errorf("p(x=3) = %v not above p(x=1.5) = %v", proba.At(7, 1), proba.At(4, 1))
	}
	if proba.At(0, 1) >= proba.At(3, 1) {
		t.Errorf("p(x=-3) = %v not below p(x=-1.5) = %v", proba.At(0, 1), proba.At(3, 1))
	}
}

func TestLogisticRegressionClasses(t *testing.T) {
	// Labels other than 0/1 keep their original values.
	X := mat.NewDense(6, 1, []float64{-2, -1.5, -1, 1, 1.5, 2})
	y := mat.NewDense(6, 1, []float64{3, 3, 3, 7, 7, 7})

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if got := lr.Classes(); got != [2]float64{3, 7} {
		t.Errorf("Classes() = %v, want [3 7]", got)
	}
	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{-5, 5}))
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if pred.At(0, 0) != 3 || pred.At(1, 0) != 7 {
		t.Errorf("Predict() = [%v %v], want [3 7]", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestBalancedWeights(t *testing.T) {
	// 6 rows, 4 of class 0 and 2 of class 1: weights 6/8 and 6/4.
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 0, 1, 1})

	weights, err := BalancedWeights(y)
	if err != nil {
		t.Fatalf("BalancedWeights() error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if math.Abs(weights[i]-0.75) > 1e-12 {
			t.Errorf("weights[%d] = %v, want 0.75", i, weights[i])
		}
	}
	for i := 4; i < 6; i++ {
		if math.Abs(weights[i]-1.5) > 1e-12 {
			t.Errorf("weights[%d] = %v, want 1.5", i, weights[i])
		}
	}

	// Both classes end up with equal total weight.
	var neg, pos float64
	for i, w := range weights {
		if y.At(i, 0) == 0 {
			neg += w
		} else {
			pos += w
		}
	}
	if math.Abs(neg-pos) > 1e-12 {
		t.Errorf("class totals differ: %v vs %v", neg, pos)
	}
}

func TestLogisticRegressionBalancedOnImbalance(t *testing.T) {
	// One positive among nine rows. The balanced fit must still be able to
	// find the positive region.
	X := mat.NewDense(9, 1, []float64{-4, -3.5, -3, -2.5, -2, -1.5, -1, -0.5, 4})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1})

	lr := NewLogisticRegression(WithBalancedWeights(), WithMaxIter(2000))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	pred, err := lr.Predict(mat.NewDense(1, 1, []float64{4}))
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if pred.At(0, 0) != 1 {
		t.Errorf("balanced fit predicted %v for the positive example, want 1", pred.At(0, 0))
	}
}

func TestLogisticRegressionErrors(t *testing.T) {
	tests := []struct {
		name   string
		X      *mat.Dense
		y      *mat.Dense
		weight []float64
	}{
		{
			name: "single class",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewDense(3, 1, []float64{1, 1, 1}),
		},
		{
			name: "three classes",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewDense(3, 1, []float64{0, 1, 2}),
		},
		{
			name: "row count mismatch",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewDense(2, 1, []float64{0, 1}),
		},
		{
			name:   "negative sample weight",
			X:      mat.NewDense(2, 1, []float64{1, 2}),
			y:      mat.NewDense(2, 1, []float64{0, 1}),
			weight: []float64{1, -1},
		},
		{
			name:   "weight length mismatch",
			X:      mat.NewDense(2, 1, []float64{1, 2}),
			y:      mat.NewDense(2, 1, []float64{0, 1}),
			weight: []float64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLogisticRegression()
			if err := lr.FitWeighted(tt.X, tt.y, tt.weight); err == nil {
				t.Error("FitWeighted() expected an error, got nil")
			}
		})
	}
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	if _, err := lr.PredictProba(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("PredictProba() before Fit() expected an error")
	}
}
