package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrTooFewPoints is returned when fewer than two points are given.
	ErrTooFewPoints = errors.New("interp: need at least two points")

	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("interp: x and y lengths differ")

	// ErrDuplicateX is returned when two sample positions coincide.
	ErrDuplicateX = errors.New("interp: duplicate x value")

	// ErrNonFiniteX is returned when a sample position is NaN or infinite.
	ErrNonFiniteX = errors.New("interp: non-finite x value")
)

// Linear1D is a piecewise-linear interpolant with linear extrapolation.
type Linear1D struct {
	x, y []float64
}

// NewLinear1D builds an interpolant from sample positions x and values y.
// The inputs are copied and sorted by x; x values must be distinct and
// finite.
func NewLinear1D(x, y []float64) (*Linear1D, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	if len(x) < 2 {
		return nil, ErrTooFewPoints
	}

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w at %d: %g", ErrNonFiniteX, i, v)
		}
	}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	l := &Linear1D{x: make([]float64, len(x)), y: make([]float64, len(y))}
	for i, j := range idx {
		l.x[i] = x[j]
		l.y[i] = y[j]
	}

	for i := 1; i < len(l.x); i++ {
		if l.x[i] == l.x[i-1] {
			return nil, fmt.Errorf("%w: %g", ErrDuplicateX, l.x[i])
		}
	}

	return l, nil
}

// At evaluates the interpolant at v. Outside [x0, xN] the nearest end
// segment is extended.
func (l *Linear1D) At(v float64) float64 {
	n := len(l.x)

	// first index with x[i] > v, clamped so [i-1, i] is a valid segment
	i := sort.SearchFloat64s(l.x, v)
	switch {
	case i < 1:
		i = 1
	case i > n-1:
		i = n - 1
	}

	x0, x1 := l.x[i-1], l.x[i]
	y0, y1 := l.y[i-1], l.y[i]

	return y0 + (v-x0)*(y1-y0)/(x1-x0)
}

// EvalTo writes the interpolant at each xs[i] into dst[i].
func (l *Linear1D) EvalTo(dst, xs []float64) {
	for i, v := range xs {
		dst[i] = l.At(v)
	}
}

// Linear interpolates (x, y) onto xNew with linear extrapolation.
func Linear(x, y, xNew []float64) ([]float64, error) {
	l, err := NewLinear1D(x, y)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(xNew))
	l.EvalTo(out, xNew)

	return out, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// n == 1 yields [start]; n <= 0 yields nil.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}

	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}

	out[n-1] = stop

	return out
}

// NearestIndex returns the index of the element of x closest to v. Ties go
// to the lower index. It returns -1 for empty x.
func NearestIndex(x []float64, v float64) int {
	best := -1
	bestDist := math.Inf(1)

	for i, xi := range x {
		if d := math.Abs(xi - v); d < bestDist {
			best, bestDist = i, d
		}
	}

	return best
}

// Range returns the indices i with lo <= x[i] <= hi.
func Range(x []float64, lo, hi float64) []int {
	var idx []int
	for i, xi := range x {
		if xi >= lo && xi <= hi {
			idx = append(idx, i)
		}
	}

	return idx
}
