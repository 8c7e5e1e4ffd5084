// Package preprocessing derives model-ready features from the raw dataset:
// manufacturer one-hot indicators and feature scaling.
package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/model"
	"github.com/cd-at-willamette/autompg/dataset"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// TopKEncoder builds binary indicator columns for the k most frequent
// manufacturers in a dataset. Frequency ties are broken by ascending lexical
// order of the manufacturer name, so the selected set is deterministic.
type TopKEncoder struct {
	model.BaseEstimator

	// K is the number of manufacturer indicator columns to produce.
	K int

	categories []string
}

// NewTopKEncoder creates an encoder for the k most frequent manufacturers.
func NewTopKEncoder(k int) *TopKEncoder {
	return &TopKEncoder{K: k}
}

// Fit counts manufacturer frequencies and selects the top-k set.
func (e *TopKEncoder) Fit(ds *dataset.Dataset) error {
	if e.K < 1 {
		return errors.NewValidationError("k", "must be at least 1", e.K)
	}
	if ds.Len() == 0 {
		return errors.NewModelError("TopKEncoder.Fit", "empty dataset", errors.ErrEmptyData)
	}

	counts := make(map[string]int)
	for _, rec := range ds.Records() {
		counts[rec.Manufacturer()]++
	}
	if e.K > len(counts) {
		return errors.NewValidationError("k", "exceeds number of distinct manufacturers", e.K)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	// Highest frequency first; equal counts ordered by name ascending.
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	e.categories = names[:e.K]
	e.SetFitted()
	return nil
}

// Transform returns an n-by-k binary matrix: entry (i, j) is 1 iff row i's
// manufacturer equals the j-th selected category. Rows whose manufacturer is
// outside the top-k set are all zeros.
func (e *TopKEncoder) Transform(ds *dataset.Dataset) (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("TopKEncoder", "Transform")
	}
	if ds.Len() == 0 {
		return nil, errors.NewModelError("TopKEncoder.Transform", "empty dataset", errors.ErrEmptyData)
	}

	index := make(map[string]int, len(e.categories))
	for j, name := range e.categories {
		index[name] = j
	}

	X := mat.NewDense(ds.Len(), len(e.categories), nil)
	for i, rec := range ds.Records() {
		if j, ok := index[rec.Manufacturer()]; ok {
			X.Set(i, j, 1)
		}
	}
	return X, nil
}

// FitTransform fits the encoder and transforms the same dataset.
func (e *TopKEncoder) FitTransform(ds *dataset.Dataset) (*mat.Dense, error) {
	if err := e.Fit(ds); err != nil {
		return nil, err
	}
	return e.Transform(ds)
}

// Categories returns the selected manufacturer names in indicator-column
// order. Callers must treat the slice as read-only.
func (e *TopKEncoder) Categories() []string {
	return e.categories
}
