package conv

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput  = errors.New("conv: empty input")
	ErrEmptyKernel = errors.New("conv: empty kernel")
)

// Mode specifies the output region of a convolution or correlation.
type Mode int

const (
	// ModeFull returns all len(a)+len(b)-1 samples.
	ModeFull Mode = iota

	// ModeSame returns len(a) samples centered on the full result.
	ModeSame

	// ModeValid returns only the fully overlapping part.
	ModeValid
)

// Direct performs time-domain linear convolution of a and b and returns
// len(a)+len(b)-1 samples.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}

	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	DirectTo(result, a, b)

	return result, nil
}

// DirectTo writes the convolution of a and b to dst, which must have length
// len(a)+len(b)-1.
func DirectTo(dst, a, b []float64) {
	clear(dst)

	m := len(b)
	temp := make([]float64, m)

	for i, x := range a {
		vecmath.ScaleBlock(temp, b, x)
		vecmath.AddBlockInPlace(dst[i:i+m], temp)
	}
}

// ConvolveMode convolves a with b and trims the result to mode.
func ConvolveMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := Direct(a, b)
	if err != nil {
		return nil, err
	}

	return trimToMode(full, len(a), len(b), mode), nil
}

func trimToMode(full []float64, lenA, lenB int, mode Mode) []float64 {
	switch mode {
	case ModeSame:
		start := (lenB - 1) / 2
		return full[start : start+lenA]
	case ModeValid:
		if lenA >= lenB {
			return full[lenB-1 : lenA]
		}
		return full[lenA-1 : lenB]
	default:
		return full
	}
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
