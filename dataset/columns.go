package dataset

// Column identifies one of the numeric columns. The free-text name field is
// not a Column; manufacturer derivation goes through Record.Manufacturer.
type Column int

const (
	MPG Column = iota
	Cylinders
	Displacement
	Horsepower
	Weight
	Acceleration
	Year
	Origin
)

var columnNames = [...]string{
	MPG:          "mpg",
	Cylinders:    "cylinders",
	Displacement: "displacement",
	Horsepower:   "horsepower",
	Weight:       "weight",
	Acceleration: "acceleration",
	Year:         "year",
	Origin:       "origin",
}

func (c Column) String() string {
	if int(c) < 0 || int(c) >= len(columnNames) {
		return "unknown"
	}
	return columnNames[c]
}

func (r Record) value(c Column) float64 {
	switch c {
	case MPG:
		return r.MPG
	case Cylinders:
		return float64(r.Cylinders)
	case Displacement:
		return r.Displacement
	case Horsepower:
		return r.Horsepower
	case Weight:
		return r.Weight
	case Acceleration:
		return r.Acceleration
	case Year:
		return float64(r.Year)
	case Origin:
		return float64(r.Origin)
	}
	return 0
}

// FeatureSpec describes one column of a feature matrix: either a raw numeric
// column or the pairwise product of two columns.
type FeatureSpec struct {
	a, b        Column
	interaction bool
}

// Col selects a raw numeric column.
func Col(c Column) FeatureSpec {
	return FeatureSpec{a: c}
}

// Interaction selects the pairwise product of two columns.
func Interaction(a, b Column) FeatureSpec {
	return FeatureSpec{a: a, b: b, interaction: true}
}

// Name returns a human-readable label for report tables.
func (f FeatureSpec) Name() string {
	if f.interaction {
		return f.a.String() + ":" + f.b.String()
	}
	return f.a.String()
}

func (f FeatureSpec) usesColumn(c Column) bool {
	if f.a == c {
		return true
	}
	return f.interaction && f.b == c
}

func (f FeatureSpec) value(r Record) float64 {
	if f.interaction {
		return r.value(f.a) * r.value(f.b)
	}
	return r.value(f.a)
}

// AllPredictors returns specs for every numeric column except the target,
// in declaration order. This is the "regress on everything else" mode.
func AllPredictors(target Column) []FeatureSpec {
	all := []Column{MPG, Cylinders, Displacement, Horsepower, Weight, Acceleration, Year, Origin}
	specs := make([]FeatureSpec, 0, len(all)-1)
	for _, c := range all {
		if c != target {
			specs = append(specs, Col(c))
		}
	}
	return specs
}
