package smooth

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-spectro/dsp/conv"
)

var (
	// ErrInvalidWindow is returned when the window is < 1 or longer than the
	// signal.
	ErrInvalidWindow = errors.New("smooth: invalid window size")

	// ErrEmptyInput is returned for empty signals.
	ErrEmptyInput = errors.New("smooth: empty input")
)

func checkWindow(n, w int) error {
	if n == 0 {
		return ErrEmptyInput
	}

	if w < 1 || w > n {
		return fmt.Errorf("%w: %d for %d samples", ErrInvalidWindow, w, n)
	}

	return nil
}

// MovingMean is a centered running mean. Samples beyond the ends are
// mirrored about the edge (x[-1] = x[0], x[-2] = x[1], ...).
func MovingMean(x []float64, w int) ([]float64, error) {
	if err := checkWindow(len(x), w); err != nil {
		return nil, err
	}

	n := len(x)
	left := w / 2

	at := func(i int) float64 {
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return x[i]
	}

	out := make([]float64, n)

	var sum float64
	for k := -left; k < w-left; k++ {
		sum += at(k)
	}

	out[0] = sum / float64(w)
	for i := 1; i < n; i++ {
		sum += at(i+w-left-1) - at(i-left-1)
		out[i] = sum / float64(w)
	}

	return out, nil
}

// MovingMeanSame convolves x with a length-w box kernel and keeps the
// len(x) samples centered on the full result. Samples outside x count as
// zero, so the ends are pulled toward zero.
func MovingMeanSame(x []float64, w int) ([]float64, error) {
	if err := checkWindow(len(x), w); err != nil {
		return nil, err
	}

	kernel := make([]float64, w)
	for i := range kernel {
		kernel[i] = 1 / float64(w)
	}

	return conv.ConvolveMode(x, kernel, conv.ModeSame)
}

// Median is a centered rolling median. Positions whose window would extend
// past either end are NaN.
func Median(x []float64, w int) ([]float64, error) {
	if err := checkWindow(len(x), w); err != nil {
		return nil, err
	}

	n := len(x)
	left := w / 2

	out := make([]float64, n)
	buf := make([]float64, w)

	for i := range out {
		lo := i - left
		hi := lo + w
		if lo < 0 || hi > n {
			out[i] = math.NaN()
			continue
		}

		copy(buf, x[lo:hi])
		slices.Sort(buf)

		if w%2 == 1 {
			out[i] = buf[w/2]
		} else {
			out[i] = (buf[w/2-1] + buf[w/2]) / 2
		}
	}

	return out, nil
}
