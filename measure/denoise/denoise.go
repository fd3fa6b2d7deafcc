package denoise

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectro/dsp/conv"
	"github.com/cwbudde/algo-spectro/dsp/interp"
	"github.com/cwbudde/algo-spectro/stats/descriptive"
)

const (
	defaultSignalLo = 470.0
	defaultSignalHi = 680.0
	defaultNoiseLo  = 800.0
	defaultNoiseHi  = 900.0
)

var (
	// ErrLengthMismatch is returned when the three input slices differ in length.
	ErrLengthMismatch = errors.New("denoise: wavelengths, original and filtered must have equal length")

	// ErrEmptyBand is returned when no valid sample falls inside a band.
	ErrEmptyBand = errors.New("denoise: band contains no samples")
)

// Band is an inclusive wavelength interval in nm.
type Band struct {
	Lo, Hi float64
}

// Config holds the evaluation bands.
type Config struct {
	Signal Band
	Noise  Band
}

// Result holds the comparison metrics of one filtered spectrum.
type Result struct {
	MSE        float64
	Distortion float64 // var(filtered-original) / var(original)
	SNR        float64 // signal-band peak / noise-band std, on the filtered spectrum
	SPNR       float64 // signal-band peak / noise-band peak, on the filtered spectrum
	PearsonR   float64
	PhaseShift int // lag in samples maximizing the cross-correlation
	Misaligned int // samples left over after shifting by PhaseShift
	Samples    int // samples used after dropping NaN positions
}

// Calculator evaluates filtered spectra against their originals.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator. Zero bands take the defaults.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: normalizeConfig(cfg)}
}

// Evaluate is a one-shot Calculator.Evaluate.
func Evaluate(wavelengths, original, filtered []float64, cfg Config) (Result, error) {
	return NewCalculator(cfg).Evaluate(wavelengths, original, filtered)
}

// Evaluate computes all metrics. Positions where any input is NaN (the
// incomplete windows of a rolling median, for example) are dropped first.
func (c *Calculator) Evaluate(wavelengths, original, filtered []float64) (Result, error) {
	if len(wavelengths) != len(original) || len(original) != len(filtered) {
		return Result{}, fmt.Errorf("%w: %d, %d, %d", ErrLengthMismatch, len(wavelengths), len(original), len(filtered))
	}

	wl, orig, filt := dropNaN(wavelengths, original, filtered)
	if len(orig) == 0 {
		return Result{}, fmt.Errorf("%w: all samples are NaN", ErrEmptyBand)
	}

	sigIdx := interp.Range(wl, c.cfg.Signal.Lo, c.cfg.Signal.Hi)
	noiseIdx := interp.Range(wl, c.cfg.Noise.Lo, c.cfg.Noise.Hi)

	if len(sigIdx) == 0 {
		return Result{}, fmt.Errorf("%w: signal %g-%g nm", ErrEmptyBand, c.cfg.Signal.Lo, c.cfg.Signal.Hi)
	}

	if len(noiseIdx) == 0 {
		return Result{}, fmt.Errorf("%w: noise %g-%g nm", ErrEmptyBand, c.cfg.Noise.Lo, c.cfg.Noise.Hi)
	}

	signalPeak, _ := descriptive.MaxIn(filt, sigIdx)
	noisePeak, _ := descriptive.MaxIn(filt, noiseIdx)

	noise := make([]float64, len(noiseIdx))
	for i, j := range noiseIdx {
		noise[i] = filt[j]
	}

	diff := make([]float64, len(orig))
	for i := range orig {
		diff[i] = filt[i] - orig[i]
	}

	shift, misaligned, err := PhaseShift(orig, filt)
	if err != nil {
		return Result{}, err
	}

	return Result{
		MSE:        descriptive.MSE(orig, filt),
		Distortion: descriptive.Variance(diff) / descriptive.Variance(orig),
		SNR:        signalPeak / descriptive.Std(noise),
		SPNR:       signalPeak / noisePeak,
		PearsonR:   descriptive.Pearson(orig, filt),
		PhaseShift: shift,
		Misaligned: misaligned,
		Samples:    len(orig),
	}, nil
}

// PhaseShift returns the lag (filtered relative to original) that maximizes
// their cross-correlation, and the number of samples beyond that lag:
// len(filtered)-lag for a positive lag, len(original)+lag for a negative
// one, 0 otherwise.
func PhaseShift(original, filtered []float64) (shift, misaligned int, err error) {
	corr, err := conv.CorrelateFFT(original, filtered)
	if err != nil {
		return 0, 0, fmt.Errorf("denoise: cross-correlation: %w", err)
	}

	idx, _ := conv.FindPeak(corr)
	shift = conv.LagFromIndex(idx, len(filtered))

	switch {
	case shift > 0:
		misaligned = max(0, len(filtered)-shift)
	case shift < 0:
		misaligned = max(0, len(original)+shift)
	}

	return shift, misaligned, nil
}

func dropNaN(wl, a, b []float64) ([]float64, []float64, []float64) {
	outW := make([]float64, 0, len(wl))
	outA := make([]float64, 0, len(a))
	outB := make([]float64, 0, len(b))

	for i := range wl {
		if math.IsNaN(wl[i]) || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}

		outW = append(outW, wl[i])
		outA = append(outA, a[i])
		outB = append(outB, b[i])
	}

	return outW, outA, outB
}

func normalizeConfig(cfg Config) Config {
	if cfg.Signal == (Band{}) {
		cfg.Signal = Band{Lo: defaultSignalLo, Hi: defaultSignalHi}
	}

	if cfg.Noise == (Band{}) {
		cfg.Noise = Band{Lo: defaultNoiseLo, Hi: defaultNoiseHi}
	}

	return cfg
}
