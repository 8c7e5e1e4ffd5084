package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// ConfusionMatrix is the 2x2 contingency table for a binary classification
// run. The positive label is recorded so reports can name the classes.
type ConfusionMatrix struct {
	TP, FP, FN, TN int
	PositiveLabel  float64
	NegativeLabel  float64
}

// NewConfusionMatrix tabulates true against predicted labels. Both vectors
// must draw from the same two-element label set; the larger label is treated
// as positive.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	labels := map[float64]bool{}
	for i := 0; i < n; i++ {
		labels[yTrue.AtVec(i)] = true
		labels[yPred.AtVec(i)] = true
	}
	if len(labels) > 2 {
		return nil, errors.NewValueError("NewConfusionMatrix", "more than two distinct labels")
	}

	neg, pos := labelPair(labels)
	cm := &ConfusionMatrix{PositiveLabel: pos, NegativeLabel: neg}
	for i := 0; i < n; i++ {
		truePos := yTrue.AtVec(i) == pos
		predPos := yPred.AtVec(i) == pos
		switch {
		case truePos && predPos:
			cm.TP++
		case truePos && !predPos:
			cm.FN++
		case !truePos && predPos:
			cm.FP++
		default:
			cm.TN++
		}
	}
	return cm, nil
}

func labelPair(labels map[float64]bool) (neg, pos float64) {
	vals := make([]float64, 0, 2)
	for v := range labels {
		vals = append(vals, v)
	}
	if len(vals) == 1 {
		return vals[0], vals[0]
	}
	if vals[0] < vals[1] {
		return vals[0], vals[1]
	}
	return vals[1], vals[0]
}

// N returns the total number of tabulated pairs.
func (cm *ConfusionMatrix) N() int {
	return cm.TP + cm.FP + cm.FN + cm.TN
}

// Accuracy returns the observed agreement p_o.
func (cm *ConfusionMatrix) Accuracy() float64 {
	return float64(cm.TP+cm.TN) / float64(cm.N())
}

// Kappa computes Cohen's chance-corrected agreement from the table's
// marginals. When the expected agreement is 1 (no variance in either
// margin) the statistic is undefined and ErrDegenerateMetric is returned;
// reporting 0 there would conflate "undefined" with "no agreement".
func (cm *ConfusionMatrix) Kappa() (float64, error) {
	n := float64(cm.N())
	po := cm.Accuracy()

	trPos := float64(cm.TP + cm.FN)
	trNeg := float64(cm.TN + cm.FP)
	prPos := float64(cm.TP + cm.FP)
	prNeg := float64(cm.TN + cm.FN)
	pe := (trPos*prPos + trNeg*prNeg) / (n * n)

	if pe == 1 {
		return 0, errors.NewDegenerateMetricError("kappa", "expected agreement is 1 (zero variance in both margins)")
	}
	return (po - pe) / (1 - pe), nil
}

// Accuracy returns the fraction of matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// CohenKappa is a convenience wrapper building the confusion matrix and
// returning its kappa.
func CohenKappa(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Kappa()
}
