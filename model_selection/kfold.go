// Package model_selection provides cross-validation splitters and
// hyperparameter selection for the pipeline's classifiers.
package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Splitter generates train/test index partitions for cross-validation.
type Splitter interface {
	Split(X, y mat.Matrix) []Fold
	NSplits() int
}

// Fold is one train/test partition.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits rows into k equal-as-possible folds, optionally after a
// seeded shuffle.
type KFold struct {
	K          int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter; k below 2 falls back to 5.
func NewKFold(k int, shuffle bool, randomSeed int) *KFold {
	if k < 2 {
		k = 5
	}
	return &KFold{K: k, Shuffle: shuffle, RandomSeed: randomSeed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int {
	return kf.K
}

// Split generates the train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.K)
	foldSize := nSamples / kf.K
	remainder := nSamples % kf.K

	currentIdx := 0
	for i := 0; i < kf.K; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = Fold{TrainIndices: trainIndices, TestIndices: testIndices}
		currentIdx += testSize
	}

	return folds
}

// StratifiedKFold preserves the per-class row proportions in every fold,
// which keeps small-class folds from degenerating to a single label.
type StratifiedKFold struct {
	K          int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a stratified splitter; k below 2 falls back
// to 5.
func NewStratifiedKFold(k int, shuffle bool, randomSeed int) *StratifiedKFold {
	if k < 2 {
		k = 5
	}
	return &StratifiedKFold{K: k, Shuffle: shuffle, RandomSeed: randomSeed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int {
	return skf.K
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	// Iterate classes in a fixed order so the split is reproducible.
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.K)
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.K
		remainder := nClass % skf.K

		currentIdx := 0
		for i := 0; i < skf.K; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	for i := 0; i < skf.K; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds
}

// Subset extracts the rows of X and y at the given indices, sorted so the
// result order is stable.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sortedIndices := make([]int, len(indices))
	copy(sortedIndices, indices)
	sort.Ints(sortedIndices)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)
	for i, idx := range sortedIndices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}
	return xSubset, ySubset
}
