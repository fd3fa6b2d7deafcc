package response

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
)

// ErrTooFewPoints is returned when a curve would have fewer than two points.
var ErrTooFewPoints = errors.New("response: need at least 2 points")

// Responder is a filter with a complex frequency response.
type Responder interface {
	Response(freqHz, sampleRate float64) complex128
}

// Curve is a sampled frequency response.
type Curve struct {
	SampleRate float64
	Freqs      []float64

	// MagnitudeDB is 20*log10|H|.
	MagnitudeDB []float64

	// Phase is unwrapped, in radians.
	Phase []float64

	// GroupDelay is in samples.
	GroupDelay []float64
}

// Sample evaluates h at points frequencies evenly spaced from 0 to the
// Nyquist frequency inclusive.
func Sample(h Responder, sampleRate float64, points int) (Curve, error) {
	if points < 2 {
		return Curve{}, fmt.Errorf("%w: %d", ErrTooFewPoints, points)
	}
	if !(sampleRate > 0) {
		return Curve{}, fmt.Errorf("response: sample rate must be > 0: %g", sampleRate)
	}

	c := Curve{
		SampleRate: sampleRate,
		Freqs:      make([]float64, points),
	}

	re := make([]float64, points)
	im := make([]float64, points)
	phase := make([]float64, points)
	step := sampleRate / 2 / float64(points-1)

	for i := range points {
		f := float64(i) * step
		z := h.Response(f, sampleRate)
		c.Freqs[i] = f
		re[i], im[i] = real(z), imag(z)
		phase[i] = cmplx.Phase(z)
	}

	mag := make([]float64, points)
	vecmath.Magnitude(mag, re, im)

	c.MagnitudeDB = make([]float64, points)
	for i, m := range mag {
		c.MagnitudeDB[i] = 20 * math.Log10(m)
	}

	c.Phase = UnwrapPhase(phase)

	gd, err := GroupDelay(c.Phase, 2*math.Pi*step/sampleRate)
	if err != nil {
		return Curve{}, err
	}
	c.GroupDelay = gd

	return c, nil
}

// Cutoff returns the first frequency where the magnitude has fallen 3 dB
// below its DC value, linearly interpolated between grid points. It returns
// NaN when the curve never falls that far.
func (c Curve) Cutoff() float64 {
	if len(c.MagnitudeDB) == 0 {
		return math.NaN()
	}

	target := c.MagnitudeDB[0] - 3
	for i := 1; i < len(c.MagnitudeDB); i++ {
		a, b := c.MagnitudeDB[i-1], c.MagnitudeDB[i]
		if b > target {
			continue
		}
		if a == b {
			return c.Freqs[i]
		}
		t := (a - target) / (a - b)
		return c.Freqs[i-1] + t*(c.Freqs[i]-c.Freqs[i-1])
	}

	return math.NaN()
}

// UnwrapPhase returns a copy of phase with +/-2*pi jumps removed.
func UnwrapPhase(phase []float64) []float64 {
	if len(phase) == 0 {
		return nil
	}
	out := make([]float64, len(phase))
	out[0] = phase[0]
	offset := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		switch {
		case d > math.Pi:
			offset -= 2 * math.Pi
		case d < -math.Pi:
			offset += 2 * math.Pi
		}
		out[i] = phase[i] + offset
	}
	return out
}

// GroupDelay differentiates unwrapped phase sampled every dw radians per
// sample and returns -dphi/dw. Interior points use a centered difference,
// the endpoints a one-sided one.
func GroupDelay(unwrapped []float64, dw float64) ([]float64, error) {
	if len(unwrapped) < 2 {
		return nil, fmt.Errorf("%w: %d", ErrTooFewPoints, len(unwrapped))
	}
	if !(dw > 0) || math.IsInf(dw, 0) {
		return nil, fmt.Errorf("response: invalid frequency spacing %g", dw)
	}

	out := make([]float64, len(unwrapped))
	last := len(unwrapped) - 1
	for i := range unwrapped {
		var dphi float64
		switch i {
		case 0:
			dphi = unwrapped[1] - unwrapped[0]
		case last:
			dphi = unwrapped[i] - unwrapped[i-1]
		default:
			dphi = (unwrapped[i+1] - unwrapped[i-1]) / 2
		}
		out[i] = -dphi / dw
	}
	return out, nil
}
