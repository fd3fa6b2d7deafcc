package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectro/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

var (
	// ErrInvalidFrequency is returned when the corner is not in (0, Nyquist).
	ErrInvalidFrequency = errors.New("design: frequency must be between 0 and Nyquist")

	// ErrInvalidOrder is returned for filter orders < 1.
	ErrInvalidOrder = errors.New("design: order must be >= 1")
)

// Lowpass designs an RBJ lowpass biquad at freq (Hz) with quality factor q.
// A non-positive q selects 1/sqrt(2).
func Lowpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2

	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha), nil
}

// ButterworthLP designs a lowpass Butterworth cascade of the given order.
//
// The bilinear transform is prewarped at freq, so the -3 dB point lands
// exactly on the corner. For odd orders the last section is first order
// (B2 = A2 = 0).
func ButterworthLP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	if _, err := normalizedW0(freq, sampleRate); err != nil {
		return nil, err
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)

	for i := order/2 - 1; i >= 0; i-- {
		c, err := Lowpass(freq, butterworthQ(order, i), sampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, c)
	}

	if order%2 != 0 {
		sections = append(sections, firstOrderLP(freq, sampleRate))
	}

	return sections, nil
}

// butterworthQ returns the quality factor of pole pair index (0 .. order/2-1).
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return defaultQ
	}

	return 1 / (2 * s)
}

func firstOrderLP(freq, sampleRate float64) biquad.Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad.Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

func normalizedW0(freq, sampleRate float64) (float64, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) ||
		!(freq > 0) || freq >= sampleRate/2 || math.IsInf(freq, 0) {
		return 0, fmt.Errorf("%w: %g Hz at %g Hz", ErrInvalidFrequency, freq, sampleRate)
	}

	return 2 * math.Pi * freq / sampleRate, nil
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
