package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:      0.0,
			tolerance: 1e-10,
		},
		{
			name:      "simple case",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:      0.25, // ((0.5)^2 + (0.5)^2 + (-0.5)^2 + (-0.5)^2) / 4
			tolerance: 1e-10,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "zero exactly on perfect prediction",
			yTrue:     mat.NewVecDense(3, []float64{18.0, 25.0, 30.0}),
			yPred:     mat.NewVecDense(3, []float64{18.0, 25.0, 30.0}),
			want:      0.0,
			tolerance: 1e-10,
		},
		{
			name:      "constant offset",
			yTrue:     mat.NewVecDense(4, []float64{10.0, 20.0, 30.0, 40.0}),
			yPred:     mat.NewVecDense(4, []float64{12.0, 22.0, 32.0, 42.0}),
			want:      2.0,
			tolerance: 1e-10,
		},
		{
			name:      "mixed errors",
			yTrue:     mat.NewVecDense(2, []float64{0.0, 0.0}),
			yPred:     mat.NewVecDense(2, []float64{3.0, -4.0}),
			want:      math.Sqrt(12.5),
			tolerance: 1e-10,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			yPred:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RMSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RMSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got < 0 {
				t.Errorf("RMSE() = %v, must be non-negative", got)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("RMSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{2.0, 2.0, 2.0, 2.0})

	got, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAE() unexpected error: %v", err)
	}
	want := 1.0 // (1 + 0 + 1 + 2) / 4
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("MAE() = %v, want %v", got, want)
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect fit",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			want:      1.0,
			tolerance: 1e-10,
		},
		{
			name:      "mean prediction scores zero",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5}),
			want:      0.0,
			tolerance: 1e-10,
		},
		{
			name:    "constant target is undefined",
			yTrue:   mat.NewVecDense(3, []float64{5.0, 5.0, 5.0}),
			yPred:   mat.NewVecDense(3, []float64{4.0, 5.0, 6.0}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrDegenerateMetric) {
					t.Errorf("R2Score() error = %v, want degenerate metric", err)
				}
				return
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}
