package spectra

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-spectro/dsp/filter/fir"
	"github.com/cwbudde/algo-spectro/dsp/smooth"
)

// SmootherKind names a smoothing family.
type SmootherKind string

const (
	SmoothFIR         SmootherKind = "fir"
	SmoothMovingMean  SmootherKind = "movmean"
	SmoothMedian      SmootherKind = "median"
	SmoothButterworth SmootherKind = "butterworth"
	SmoothSavGol      SmootherKind = "savgol"
	SmoothNone        SmootherKind = "none"
)

// Smoother configures the smoothing stage.
type Smoother struct {
	Kind SmootherKind

	// Taps and Cutoff (Hz) parameterize the FIR lowpass; Cutoff and Order
	// the Butterworth lowpass.
	Taps   int
	Cutoff float64
	Order  int

	// SampleRate is the rate the cutoff refers to. Zero uses the number of
	// channels of the reading.
	SampleRate float64

	// Causal runs the FIR forward only, delaying the spectrum by half the
	// filter length. The default is zero-phase.
	Causal bool

	// Window is the length for moving mean, median and Savitzky-Golay;
	// Order doubles as the Savitzky-Golay polynomial order.
	Window int
}

// DefaultSmoother returns the acquisition default: 101-tap Hamming FIR at
// a 10 Hz cutoff, zero-phase.
func DefaultSmoother() Smoother {
	return Smoother{
		Kind:   SmoothFIR,
		Taps:   101,
		Cutoff: 10,
		Order:  4,
		Window: 35,
	}
}

// Validate checks the parameters of the selected family.
func (s Smoother) Validate() error {
	switch s.Kind {
	case SmoothFIR:
		if s.Taps < 1 {
			return fmt.Errorf("spectra: fir taps must be >= 1, got %d", s.Taps)
		}
		if !(s.Cutoff > 0) {
			return fmt.Errorf("spectra: fir cutoff must be > 0, got %g", s.Cutoff)
		}
	case SmoothButterworth:
		if s.Order < 1 || !(s.Cutoff > 0) {
			return fmt.Errorf("spectra: butterworth needs order >= 1 and cutoff > 0")
		}
	case SmoothMovingMean, SmoothMedian:
		if s.Window < 1 {
			return fmt.Errorf("spectra: window must be >= 1, got %d", s.Window)
		}
	case SmoothSavGol:
		if s.Window < 1 || s.Window%2 == 0 || s.Order >= s.Window {
			return fmt.Errorf("spectra: savgol needs an odd window above the order")
		}
	case SmoothNone, "":
	default:
		return fmt.Errorf("spectra: unknown smoother %q", s.Kind)
	}
	return nil
}

// Apply returns the smoothed copy of x.
func (s Smoother) Apply(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptySpectrum
	}

	fs := s.SampleRate
	if fs <= 0 {
		fs = float64(len(x))
	}

	switch s.Kind {
	case SmoothFIR:
		h, err := fir.Lowpass(s.Taps, s.Cutoff, fs)
		if err != nil {
			return nil, err
		}
		if s.Causal {
			return fir.Apply(h, x), nil
		}
		return fir.FiltFilt(h, x)

	case SmoothMovingMean:
		return smooth.MovingMean(x, s.Window)

	case SmoothMedian:
		y, err := smooth.Median(x, s.Window)
		if err != nil {
			return nil, err
		}
		fillEdges(y, x)
		return y, nil

	case SmoothButterworth:
		return smooth.Butterworth(x, s.Cutoff, s.Order, fs)

	case SmoothSavGol:
		return smooth.SavitzkyGolay(x, s.Window, s.Order)

	case SmoothNone, "":
		return slices.Clone(x), nil

	default:
		return nil, fmt.Errorf("spectra: unknown smoother %q", s.Kind)
	}
}

// fillEdges replaces the undefined (NaN) ends of a rolling median with the
// raw samples so later stages see finite values.
func fillEdges(y, x []float64) {
	for i, v := range y {
		if math.IsNaN(v) {
			y[i] = x[i]
		}
	}
}
