package model_selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/parallel"
	"github.com/cd-at-willamette/autompg/linear"
	"github.com/cd-at-willamette/autompg/metrics"
	"github.com/cd-at-willamette/autompg/neighbors"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// Classifier is the interface cross-validation needs from a model.
type Classifier interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaClassifier additionally exposes class probabilities, enabling
// ranking scorers such as AUC.
type ProbaClassifier interface {
	Classifier
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Scorer evaluates a fitted classifier on held-out data. Higher is better.
type Scorer func(clf Classifier, X, y mat.Matrix) (float64, error)

// KappaScorer scores by Cohen's kappa of the predicted labels.
func KappaScorer(clf Classifier, X, y mat.Matrix) (float64, error) {
	pred, err := clf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.CohenKappa(columnVec(y), columnVec(pred))
}

// AUCScorer scores by ROC-AUC of the positive-class probabilities. Labels
// are recoded to 0/1 against the larger class value.
func AUCScorer(clf Classifier, X, y mat.Matrix) (float64, error) {
	pc, ok := clf.(ProbaClassifier)
	if !ok {
		return 0, errors.NewValueError("AUCScorer", "classifier does not expose probabilities")
	}
	proba, err := pc.PredictProba(X)
	if err != nil {
		return 0, err
	}

	rows, _ := y.Dims()
	positive := y.At(0, 0)
	for i := 1; i < rows; i++ {
		if y.At(i, 0) > positive {
			positive = y.At(i, 0)
		}
	}
	yBinary := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == positive {
			yBinary.SetVec(i, 1)
		}
	}

	score := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		score.SetVec(i, proba.At(i, 1))
	}
	return metrics.AUC(yBinary, score)
}

// CrossValScore fits a fresh classifier per fold and scores it on the held
// out rows. Folds run in parallel; the returned slice is indexed by fold,
// so aggregation is deterministic.
func CrossValScore(factory func() Classifier, X, y mat.Matrix, splitter Splitter, score Scorer) ([]float64, error) {
	folds := splitter.Split(X, y)
	scores := make([]float64, len(folds))
	errs := make([]error, len(folds))

	parallel.Parallelize(len(folds), func(start, end int) {
		for i := start; i < end; i++ {
			fold := folds[i]
			trainX, trainY := Subset(X, y, fold.TrainIndices)
			testX, testY := Subset(X, y, fold.TestIndices)

			clf := factory()
			if err := clf.Fit(trainX, trainY); err != nil {
				errs[i] = errors.Wrapf(err, "fold %d", i)
				continue
			}
			s, err := score(clf, testX, testY)
			if err != nil {
				errs[i] = errors.Wrapf(err, "fold %d", i)
				continue
			}
			scores[i] = s
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}

// Mean averages a score slice.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// SelectNeighbors chooses the neighbor count in [kMin, kMax] maximizing the
// mean cross-validated kappa. Ties go to the smaller k.
func SelectNeighbors(X, y mat.Matrix, kMin, kMax int, splitter Splitter) (bestK int, bestScore float64, err error) {
	if kMin < 1 || kMax < kMin {
		return 0, 0, errors.NewValidationError("kMin/kMax", "need 1 <= kMin <= kMax", [2]int{kMin, kMax})
	}

	bestK = 0
	for k := kMin; k <= kMax; k++ {
		kk := k
		scores, cvErr := CrossValScore(func() Classifier {
			return neighbors.NewKNNClassifier(kk)
		}, X, y, splitter, KappaScorer)
		if cvErr != nil {
			return 0, 0, cvErr
		}
		if mean := Mean(scores); bestK == 0 || mean > bestScore {
			bestK = k
			bestScore = mean
		}
	}
	return bestK, bestScore, nil
}

// SelectC chooses the inverse regularization strength for the balanced
// logistic model maximizing mean cross-validated AUC. Ties keep the earlier
// candidate.
func SelectC(X, y mat.Matrix, candidates []float64, splitter Splitter) (bestC, bestScore float64, err error) {
	if len(candidates) == 0 {
		return 0, 0, errors.NewValueError("SelectC", "no candidate values")
	}

	for i, c := range candidates {
		cc := c
		scores, cvErr := CrossValScore(func() Classifier {
			return linear.NewLogisticRegression(linear.WithC(cc), linear.WithBalancedWeights())
		}, X, y, splitter, AUCScorer)
		if cvErr != nil {
			return 0, 0, cvErr
		}
		if mean := Mean(scores); i == 0 || mean > bestScore {
			bestC = c
			bestScore = mean
		}
	}
	return bestC, bestScore, nil
}

func columnVec(m mat.Matrix) *mat.VecDense {
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
