package fir

import (
	"github.com/cwbudde/algo-spectro/dsp/filter/zerophase"
)

// Apply filters x causally from a zero initial state and returns a new
// slice of the same length.
func Apply(coeffs, x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 || len(coeffs) == 0 {
		return out
	}

	New(coeffs).ProcessBlockTo(out, x)

	return out
}

// FiltFilt applies coeffs forward and backward. The signal is padded by
// 3*len(coeffs) samples of odd extension, clamped to len(x)-1.
func FiltFilt(coeffs, x []float64) ([]float64, error) {
	if len(coeffs) == 0 {
		return nil, ErrInvalidTaps
	}

	return zerophase.FiltFilt(New(coeffs), x, 3*len(coeffs))
}
