// Package neighbors implements a k-nearest-neighbors classifier for
// two-level targets. Fitting stores the training data; prediction is a
// Euclidean-distance vote over the k nearest training rows.
package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/model"
	"github.com/cd-at-willamette/autompg/core/parallel"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// KNNClassifier predicts the majority class among the K nearest training
// rows. Distance ties keep training order; vote ties go to the smaller
// label, so predictions are deterministic.
type KNNClassifier struct {
	model.BaseEstimator

	// K is the number of neighbors consulted per prediction.
	K int

	trainX    *mat.Dense
	trainY    []float64
	classes   [2]float64
	nFeatures int
}

// NewKNNClassifier creates an unfitted classifier with k neighbors.
func NewKNNClassifier(k int) *KNNClassifier {
	return &KNNClassifier{K: k}
}

// Fit stores the training data. The target must be a column vector with
// exactly two distinct values, and k must not exceed the number of rows.
func (knn *KNNClassifier) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	yRows, yCols := y.Dims()

	if knn.K < 1 {
		return errors.NewValidationError("k", "must be at least 1", knn.K)
	}
	if r == 0 || c == 0 {
		return errors.NewModelError("KNNClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != r {
		return errors.NewDimensionError("KNNClassifier.Fit", r, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNNClassifier.Fit", "y must be a column vector")
	}
	if knn.K > r {
		return errors.NewValidationError("k", "exceeds number of training rows", knn.K)
	}

	seen := make(map[float64]bool)
	labels := make([]float64, r)
	for i := 0; i < r; i++ {
		labels[i] = y.At(i, 0)
		seen[labels[i]] = true
	}
	if len(seen) != 2 {
		return errors.NewValueError("KNNClassifier.Fit", "target must have exactly 2 distinct classes")
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

	knn.trainX = mat.DenseCopyOf(X)
	knn.trainY = labels
	knn.classes = classes
	knn.nFeatures = c
	knn.SetFitted()
	return nil
}

// Predict returns the majority-vote label for each row of X as an n-by-1
// matrix.
func (knn *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := proba.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		// A tied vote goes to the smaller label.
		if proba.At(i, 1) > 0.5 {
			predictions.Set(i, 0, knn.classes[1])
		} else {
			predictions.Set(i, 0, knn.classes[0])
		}
	}
	return predictions, nil
}

// PredictProba returns an n-by-2 matrix where column 1 is the fraction of
// the K nearest neighbors belonging to the larger class label.
func (knn *KNNClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !knn.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "PredictProba")
	}

	r, c := X.Dims()
	if c != knn.nFeatures {
		return nil, errors.NewDimensionError("KNNClassifier.PredictProba", knn.nFeatures, c, 1)
	}

	nTrain, _ := knn.trainX.Dims()
	probas := mat.NewDense(r, 2, nil)

	const parallelThreshold = 200
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		distances := make([]float64, nTrain)
		order := make([]int, nTrain)
		for i := start; i < end; i++ {
			for t := 0; t < nTrain; t++ {
				var d float64
				for j := 0; j < c; j++ {
					diff := X.At(i, j) - knn.trainX.At(t, j)
					d += diff * diff
				}
				distances[t] = d
				order[t] = t
			}
			// Stable on training order so equidistant neighbors resolve
			// deterministically.
			sort.SliceStable(order, func(a, b int) bool {
				return distances[order[a]] < distances[order[b]]
			})

			positives := 0
			for _, t := range order[:knn.K] {
				if knn.trainY[t] == knn.classes[1] {
					positives++
				}
			}
			p := float64(positives) / float64(knn.K)
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
	})

	return probas, nil
}

// Classes returns the two class labels, ascending.
func (knn *KNNClassifier) Classes() [2]float64 {
	return knn.classes
}
