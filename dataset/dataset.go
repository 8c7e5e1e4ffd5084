// Package dataset provides the bundled automobile reference table and typed
// access to it. The table is embedded at build time and validated once at
// load; downstream stages work with immutable Dataset views and gonum
// matrices derived from them.
package dataset

import (
	_ "embed"
	"encoding/csv"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/cd-at-willamette/autompg/core/parallel"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

//go:embed auto_mpg.csv
var rawCSV string

// missingSentinel marks an absent horsepower reading in the source table.
const missingSentinel = "?"

// Record is one automobile observation. Year is the two-digit model year
// (70-82). Horsepower readings can be missing in the source data; such rows
// carry HorsepowerMissing and must be dropped before any model that uses
// the horsepower column.
type Record struct {
	MPG               float64
	Cylinders         int
	Displacement      float64
	Horsepower        float64
	HorsepowerMissing bool
	Weight            float64
	Acceleration      float64
	Year              int
	Origin            int
	Name              string
}

// Manufacturer derives the manufacturer label from the free-text name field:
// the first whitespace-delimited token, case-sensitive. It is recomputed on
// demand rather than stored.
func (r Record) Manufacturer() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Dataset is an ordered, read-only sequence of records. All derivations
// return new values; the loaded table is never mutated.
type Dataset struct {
	records []Record
}

// FromRecords wraps a record slice in a Dataset. The slice is not copied;
// callers hand over ownership.
func FromRecords(recs []Record) *Dataset {
	return &Dataset{records: recs}
}

// Load parses the embedded reference table. The schema is validated here so
// later stages can assume well-formed rows: nine columns, numeric fields
// that parse, and the documented missing-value sentinel only in the
// horsepower column.
func Load() (*Dataset, error) {
	reader := csv.NewReader(strings.NewReader(rawCSV))
	reader.FieldsPerRecord = 9

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset.Load: malformed csv")
	}
	if len(rows) < 2 {
		return nil, errors.NewModelError("dataset.Load", "empty table", errors.ErrEmptyData)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset.Load: row %d", i+2)
		}
		records = append(records, rec)
	}

	return &Dataset{records: records}, nil
}

func parseRow(row []string) (Record, error) {
	var rec Record
	var err error

	if rec.MPG, err = strconv.ParseFloat(row[0], 64); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "mpg is not numeric: "+row[0])
	}
	if rec.Cylinders, err = strconv.Atoi(row[1]); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "cylinders is not an integer: "+row[1])
	}
	if rec.Displacement, err = strconv.ParseFloat(row[2], 64); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "displacement is not numeric: "+row[2])
	}
	if row[3] == missingSentinel {
		rec.HorsepowerMissing = true
	} else if rec.Horsepower, err = strconv.ParseFloat(row[3], 64); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "horsepower is not numeric: "+row[3])
	}
	if rec.Weight, err = strconv.ParseFloat(row[4], 64); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "weight is not numeric: "+row[4])
	}
	if rec.Acceleration, err = strconv.ParseFloat(row[5], 64); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "acceleration is not numeric: "+row[5])
	}
	if rec.Year, err = strconv.Atoi(row[6]); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "year is not an integer: "+row[6])
	}
	if rec.Origin, err = strconv.Atoi(row[7]); err != nil {
		return rec, errors.NewValueError("dataset.parseRow", "origin is not an integer: "+row[7])
	}
	rec.Name = row[8]
	if rec.Name == "" {
		return rec, errors.NewValueError("dataset.parseRow", "empty name")
	}

	return rec, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the underlying records. Callers must treat the slice as
// read-only.
func (d *Dataset) Records() []Record {
	return d.records
}

// At returns the record at index i.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// DropMissingHorsepower returns a new Dataset without the rows whose
// horsepower reading is missing. The receiver is unchanged.
func (d *Dataset) DropMissingHorsepower() *Dataset {
	kept := make([]Record, 0, len(d.records))
	for _, rec := range d.records {
		if !rec.HorsepowerMissing {
			kept = append(kept, rec)
		}
	}
	return &Dataset{records: kept}
}

// Split partitions the dataset into train and test subsets. testFrac is the
// fraction of rows assigned to the test set; the shuffle is seeded so splits
// are reproducible.
func (d *Dataset) Split(testFrac float64, seed int64) (train, test *Dataset) {
	n := len(d.records)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	nTest := int(float64(n) * testFrac)
	testRecs := make([]Record, 0, nTest)
	trainRecs := make([]Record, 0, n-nTest)
	for i, idx := range indices {
		if i < nTest {
			testRecs = append(testRecs, d.records[idx])
		} else {
			trainRecs = append(trainRecs, d.records[idx])
		}
	}
	return &Dataset{records: trainRecs}, &Dataset{records: testRecs}
}

// Matrix builds an n-by-p feature matrix from the given specs, row order
// matching the dataset. Specs that touch the horsepower column require the
// missing-value rows to have been dropped first.
func (d *Dataset) Matrix(specs ...FeatureSpec) (*mat.Dense, error) {
	n := len(d.records)
	if n == 0 {
		return nil, errors.NewModelError("Dataset.Matrix", "empty dataset", errors.ErrEmptyData)
	}
	if len(specs) == 0 {
		return nil, errors.NewValueError("Dataset.Matrix", "no feature specs given")
	}

	for _, spec := range specs {
		if spec.usesColumn(Horsepower) && d.hasMissingHorsepower() {
			return nil, errors.NewValueError("Dataset.Matrix",
				"horsepower requested but missing values present; call DropMissingHorsepower first")
		}
	}

	X := mat.NewDense(n, len(specs), nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j, spec := range specs {
				X.Set(i, j, spec.value(d.records[i]))
			}
		}
	})

	return X, nil
}

// Vector builds the n-element column vector for a single numeric column.
func (d *Dataset) Vector(c Column) (*mat.VecDense, error) {
	n := len(d.records)
	if n == 0 {
		return nil, errors.NewModelError("Dataset.Vector", "empty dataset", errors.ErrEmptyData)
	}
	if c == Horsepower && d.hasMissingHorsepower() {
		return nil, errors.NewValueError("Dataset.Vector",
			"horsepower requested but missing values present; call DropMissingHorsepower first")
	}

	v := mat.NewVecDense(n, nil)
	for i, rec := range d.records {
		v.SetVec(i, rec.value(c))
	}
	return v, nil
}

func (d *Dataset) hasMissingHorsepower() bool {
	for _, rec := range d.records {
		if rec.HorsepowerMissing {
			return true
		}
	}
	return false
}
