package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectro/dsp/window"
)

var (
	// ErrInvalidTaps is returned when the requested tap count is < 1.
	ErrInvalidTaps = errors.New("fir: number of taps must be >= 1")

	// ErrInvalidCutoff is returned when the cutoff is not inside (0, Nyquist).
	ErrInvalidCutoff = errors.New("fir: cutoff must be between 0 and Nyquist")
)

// DesignOption configures windowed-sinc design.
type DesignOption func(*designConfig)

type designConfig struct {
	window  window.Type
	noScale bool
}

// WithWindow selects the design window. Hamming is the default.
func WithWindow(t window.Type) DesignOption {
	return func(c *designConfig) { c.window = t }
}

// WithoutScaling leaves the windowed sinc unnormalized instead of forcing
// unity gain at DC.
func WithoutScaling() DesignOption {
	return func(c *designConfig) { c.noScale = true }
}

// Lowpass designs a linear-phase lowpass by the window method.
//
// cutoffHz is the -6 dB point and is normalized to the Nyquist frequency
// sampleRate/2. The ideal response h[n] = c*sinc(c*(n-(N-1)/2)) with
// c = cutoff/Nyquist is tapered by the window and scaled to unity DC gain.
func Lowpass(numTaps int, cutoffHz, sampleRate float64, opts ...DesignOption) ([]float64, error) {
	if numTaps < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTaps, numTaps)
	}

	nyquist := sampleRate / 2
	if !(sampleRate > 0) || !(cutoffHz > 0) || cutoffHz >= nyquist {
		return nil, fmt.Errorf("%w: cutoff %g Hz, sample rate %g Hz", ErrInvalidCutoff, cutoffHz, sampleRate)
	}

	cfg := designConfig{window: window.TypeHamming}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	c := cutoffHz / nyquist
	alpha := 0.5 * float64(numTaps-1)

	h := make([]float64, numTaps)
	for n := range h {
		h[n] = c * sinc(c*(float64(n)-alpha))
	}

	if numTaps > 1 {
		window.Apply(cfg.window, h)
	}

	if cfg.noScale {
		return h, nil
	}

	var sum float64
	for _, v := range h {
		sum += v
	}

	for n := range h {
		h[n] /= sum
	}

	return h, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
