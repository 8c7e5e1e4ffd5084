package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 100,
		2, 200,
		3, 300,
		4, 400,
	})

	scaler := NewStandardScaler()
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error: %v", err)
	}

	r, c := out.Dims()
	for j := 0; j < c; j++ {
		var mean float64
		for i := 0; i < r; i++ {
			mean += out.At(i, j)
		}
		mean /= float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}

		var variance float64
		for i := 0; i < r; i++ {
			variance += out.At(i, j) * out.At(i, j)
		}
		variance /= float64(r)
		if math.Abs(variance-1.0) > 1e-10 {
			t.Errorf("column %d variance = %v, want 1", j, variance)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	scaler := NewStandardScaler()
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(out.At(i, 0)) > 1e-10 {
			t.Errorf("row %d = %v, want 0 for a constant column", i, out.At(i, 0))
		}
	}
	if scaler.Scale[0] != 1.0 {
		t.Errorf("Scale[0] = %v, want 1.0 for a constant column", scaler.Scale[0])
	}
}

func TestStandardScalerTrainStatisticsApplyToTest(t *testing.T) {
	train := mat.NewDense(3, 1, []float64{0, 10, 20})
	test := mat.NewDense(1, 1, []float64{10})

	scaler := NewStandardScaler()
	if err := scaler.Fit(train); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	out, err := scaler.Transform(test)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	// The test value equals the training mean, so it maps to 0.
	if math.Abs(out.At(0, 0)) > 1e-10 {
		t.Errorf("Transform(mean) = %v, want 0", out.At(0, 0))
	}
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScaler()
	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Transform() before Fit() expected an error")
	}
	if err := scaler.Fit(mat.NewDense(2, 1, []float64{1, 2})); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(1, 2, []float64{1, 2})); err == nil {
		t.Error("Transform() with wrong column count expected an error")
	}
}
