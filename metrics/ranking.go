package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// ROCPoint is one step of the ROC curve.
type ROCPoint struct {
	FPR float64
	TPR float64
}

// ROCCurve sweeps the predicted positive-class score as a decision threshold
// and returns the (FPR, TPR) step curve, from (0, 0) to (1, 1). Labels must
// be 0/1. Tied scores are grouped into a single threshold step so the curve
// is not overstated.
func ROCCurve(yTrue, yScore *mat.VecDense) ([]ROCPoint, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty vector")
	}
	if yScore.Len() != n {
		return nil, errors.NewDimensionError("ROCCurve", n, yScore.Len(), 0)
	}

	var nPos, nNeg int
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return nil, errors.NewValueError("ROCCurve", "labels must be 0 or 1")
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewDegenerateMetricError("roc", "only one class present")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return yScore.AtVec(order[i]) > yScore.AtVec(order[j])
	})

	curve := []ROCPoint{{0, 0}}
	var tp, fp int
	for i := 0; i < n; {
		// Consume the whole tie group before emitting a point.
		threshold := yScore.AtVec(order[i])
		for i < n && yScore.AtVec(order[i]) == threshold {
			if yTrue.AtVec(order[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve = append(curve, ROCPoint{
			FPR: float64(fp) / float64(nNeg),
			TPR: float64(tp) / float64(nPos),
		})
	}
	return curve, nil
}

// AUC computes the area under the ROC curve by the trapezoidal rule. It is
// the probability that a random positive is ranked above a random negative.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	curve, err := ROCCurve(yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return AUCFromCurve(curve), nil
}

// AUCFromCurve integrates an already-computed ROC curve.
func AUCFromCurve(curve []ROCPoint) float64 {
	var area float64
	for i := 1; i < len(curve); i++ {
		dx := curve[i].FPR - curve[i-1].FPR
		area += dx * (curve[i].TPR + curve[i-1].TPR) / 2
	}
	return area
}
