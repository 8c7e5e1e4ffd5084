package model_selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/neighbors"
)

// clusteredXY builds two well-separated clusters of ten rows each.
func clusteredXY() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(20, 2, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i)*0.1)
		X.Set(i, 1, float64(i)*0.1)
	}
	for i := 10; i < 20; i++ {
		X.Set(i, 0, 10+float64(i-10)*0.1)
		X.Set(i, 1, 10+float64(i-10)*0.1)
		y.Set(i, 0, 1)
	}
	return X, y
}

func TestCrossValScore(t *testing.T) {
	X, y := clusteredXY()
	splitter := NewStratifiedKFold(5, true, 42)

	scores, err := CrossValScore(func() Classifier {
		return neighbors.NewKNNClassifier(1)
	}, X, y, splitter, KappaScorer)
	require.NoError(t, err)
	require.Len(t, scores, 5)

	// Perfectly separated clusters score kappa 1 on every fold.
	for i, s := range scores {
		assert.InDelta(t, 1.0, s, 1e-12, "fold %d", i)
	}
	assert.InDelta(t, 1.0, Mean(scores), 1e-12)
}

func TestCrossValScoreDeterministic(t *testing.T) {
	X, y := clusteredXY()
	splitter := NewStratifiedKFold(4, true, 7)
	factory := func() Classifier { return neighbors.NewKNNClassifier(3) }

	first, err := CrossValScore(factory, X, y, splitter, KappaScorer)
	require.NoError(t, err)
	second, err := CrossValScore(factory, X, y, splitter, KappaScorer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectNeighbors(t *testing.T) {
	X, y := clusteredXY()
	splitter := NewStratifiedKFold(5, true, 42)

	bestK, bestScore, err := SelectNeighbors(X, y, 1, 5, splitter)
	require.NoError(t, err)

	// All k values separate the clusters perfectly; the tie goes to the
	// smallest k.
	assert.Equal(t, 1, bestK)
	assert.InDelta(t, 1.0, bestScore, 1e-12)
}

func TestSelectNeighborsBadRange(t *testing.T) {
	X, y := clusteredXY()
	splitter := NewStratifiedKFold(2, false, 0)

	_, _, err := SelectNeighbors(X, y, 0, 3, splitter)
	assert.Error(t, err)
	_, _, err = SelectNeighbors(X, y, 5, 3, splitter)
	assert.Error(t, err)
}

func TestSelectC(t *testing.T) {
	X, y := clusteredXY()
	splitter := NewStratifiedKFold(5, true, 42)
	candidates := []float64{0.01, 0.1, 1, 10}

	bestC, bestScore, err := SelectC(X, y, candidates, splitter)
	require.NoError(t, err)

	assert.Contains(t, candidates, bestC)
	assert.GreaterOrEqual(t, bestScore, 0.9, "separable clusters should rank cleanly")
	assert.LessOrEqual(t, bestScore, 1.0)
}

func TestSelectCNoCandidates(t *testing.T) {
	X, y := clusteredXY()
	_, _, err := SelectC(X, y, nil, NewStratifiedKFold(2, false, 0))
	assert.Error(t, err)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}
