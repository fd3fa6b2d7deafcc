package classify

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-spectro/features"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyDataset is returned when fitting on no rows.
	ErrEmptyDataset = errors.New("classify: empty dataset")

	// ErrShape is returned when rows, labels or feature counts disagree.
	ErrShape = errors.New("classify: inconsistent data shape")

	// ErrUnknownClass is returned when a label was not seen while fitting
	// the encoder.
	ErrUnknownClass = errors.New("classify: unknown class")

	// ErrNotFitted is returned by models used before Fit.
	ErrNotFitted = errors.New("classify: model not fitted")
)

// Dataset is a dense design matrix with encoded labels.
type Dataset struct {
	X        [][]float64
	Y        []int
	Classes  []string
	Features []string
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// Validate checks the shape.
func (d *Dataset) Validate() error {
	if len(d.X) == 0 {
		return ErrEmptyDataset
	}
	if len(d.Y) != len(d.X) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(d.X), len(d.Y))
	}

	n := len(d.X[0])
	for i, row := range d.X {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), n)
		}
	}
	for i, y := range d.Y {
		if y < 0 || y >= len(d.Classes) {
			return fmt.Errorf("%w: label %d at row %d", ErrUnknownClass, y, i)
		}
	}

	return nil
}

// Subset returns the rows idx. Row slices are shared.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		X:        make([][]float64, len(idx)),
		Y:        make([]int, len(idx)),
		Classes:  d.Classes,
		Features: d.Features,
	}
	for k, i := range idx {
		out.X[k] = d.X[i]
		out.Y[k] = d.Y[i]
	}
	return out
}

// ClassCounts returns the number of rows per class index.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, len(d.Classes))
	for _, y := range d.Y {
		counts[y]++
	}
	return counts
}

// LabelEncoder maps class names to indices in sorted order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// NewLabelEncoder returns the encoder for the distinct labels.
func NewLabelEncoder(labels []string) *LabelEncoder {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	return &LabelEncoder{Classes: slices.Compact(classes)}
}

// Transform encodes labels.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		k, ok := slices.BinarySearch(e.Classes, l)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClass, l)
		}
		out[i] = k
	}
	return out, nil
}

// Inverse decodes class indices.
func (e *LabelEncoder) Inverse(y []int) []string {
	out := make([]string, len(y))
	for i, k := range y {
		if k >= 0 && k < len(e.Classes) {
			out[i] = e.Classes[k]
		}
	}
	return out
}

// FromTable builds a dataset from a feature table using enc, or a new
// encoder over the table's labels when enc is nil. NaN cells must have
// been imputed already.
func FromTable(t *features.Table, enc *LabelEncoder) (*Dataset, *LabelEncoder, error) {
	if t.Len() == 0 {
		return nil, nil, ErrEmptyDataset
	}
	if len(t.Labels) != t.Len() {
		return nil, nil, fmt.Errorf("%w: %d rows, %d labels", ErrShape, t.Len(), len(t.Labels))
	}

	if enc == nil {
		enc = NewLabelEncoder(t.Labels)
	}

	y, err := enc.Transform(t.Labels)
	if err != nil {
		return nil, nil, err
	}

	ds := &Dataset{
		X:        t.Rows,
		Y:        y,
		Classes:  enc.Classes,
		Features: t.Names,
	}
	if err := ds.Validate(); err != nil {
		return nil, nil, err
	}

	return ds, enc, nil
}

// StandardScaler standardizes every feature to zero mean and unit
// population standard deviation. Constant features keep a divisor of 1.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes the column statistics of X.
func FitScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, ErrEmptyDataset
	}

	n := len(X[0])
	s := &StandardScaler{
		Mean: make([]float64, n),
		Std:  make([]float64, n),
	}

	col := make([]float64, len(X))
	for j := range n {
		for i, row := range X {
			if len(row) != n {
				return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), n)
			}
			col[i] = row[j]
		}

		m, v := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(v)
		if sd < 1e-10 {
			sd = 1
		}
		s.Mean[j], s.Std[j] = m, sd
	}

	return s, nil
}

// Transform returns the standardized copy of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("%w: row %d has %d features, scaler %d", ErrShape, i, len(row), len(s.Mean))
		}
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = z
	}
	return out, nil
}
