package zerophase

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEmptyInput is returned when the signal has no samples.
var ErrEmptyInput = errors.New("zerophase: empty input")

// Processor is a causal filter that can be rewound and primed.
//
// Prime must set the internal state to the one reached after an infinitely
// long constant input x, so the next output equals DC gain times x.
type Processor interface {
	ProcessBlock(buf []float64)
	Reset()
	Prime(x float64)
}

// FiltFilt returns the forward-backward filtered copy of x.
//
// padLen samples of odd extension are added on each side and removed again.
// It is clamped to len(x)-1; a negative value selects zero padding.
func FiltFilt(p Processor, x []float64, padLen int) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	if p == nil {
		return nil, fmt.Errorf("zerophase: nil processor")
	}

	padLen = max(0, min(padLen, len(x)-1))

	ext := OddExtend(x, padLen)

	p.Reset()
	p.Prime(ext[0])
	p.ProcessBlock(ext)

	slices.Reverse(ext)

	p.Reset()
	p.Prime(ext[0])
	p.ProcessBlock(ext)

	slices.Reverse(ext)
	p.Reset()

	out := make([]float64, len(x))
	copy(out, ext[padLen:padLen+len(x)])

	return out, nil
}

// OddExtend returns x extended by n samples of odd reflection about each
// endpoint: 2*x[0]-x[n..1] before and 2*x[last]-x[last-1..last-n] after.
// n must be smaller than len(x).
func OddExtend(x []float64, n int) []float64 {
	out := make([]float64, len(x)+2*n)
	last := len(x) - 1

	for i := range n {
		out[i] = 2*x[0] - x[n-i]
		out[n+len(x)+i] = 2*x[last] - x[last-1-i]
	}

	copy(out[n:], x)

	return out
}
