package denoise

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-spectro/dsp/filter/fir"
	"github.com/cwbudde/algo-spectro/dsp/smooth"
)

// Method names a smoothing family.
type Method string

const (
	MethodFIR         Method = "fir"
	MethodMovingMean  Method = "movmean"
	MethodMedian      Method = "median"
	MethodButterworth Method = "butterworth"
	MethodSavGol      Method = "savgol"
)

// Grid lists the settings a Study sweeps. Empty lists skip the family.
type Grid struct {
	FIRSampleRates []float64
	FIRCutoffs     []float64
	FIRTaps        []int

	MovingMeanWindows []int
	MedianWindows     []int

	ButterSampleRates []float64
	ButterCutoffs     []float64
	ButterOrders      []int

	SavGolWindows []int
	SavGolOrders  []int
}

// DefaultGrid returns the sweep used for the acquisition noise study.
func DefaultGrid() Grid {
	return Grid{
		FIRSampleRates:    []float64{100, 500, 1000, 2047},
		FIRCutoffs:        []float64{10, 30, 45},
		FIRTaps:           []int{35, 75, 100, 150, 200},
		MovingMeanWindows: []int{5, 15, 25, 35, 50, 80, 100, 150},
		MedianWindows:     []int{5, 15, 25, 35, 50, 80, 100, 150},
		ButterSampleRates: []float64{2048},
		ButterCutoffs:     []float64{10},
		ButterOrders:      []int{4},
		SavGolWindows:     []int{5, 11, 21, 31},
		SavGolOrders:      []int{2, 3},
	}
}

// Trial is the outcome of one filter setting. Err is set, and Result left
// zero, when the setting cannot be applied to the spectrum.
type Trial struct {
	Method Method
	Params string
	Result Result
	Err    error
}

// Study applies every setting of grid to intensity and evaluates it against
// the unfiltered spectrum.
func Study(ctx context.Context, wavelengths, intensity []float64, grid Grid, cfg Config) ([]Trial, error) {
	calc := NewCalculator(cfg)

	var trials []Trial

	run := func(m Method, params string, filter func() ([]float64, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		tr := Trial{Method: m, Params: params}

		filtered, err := filter()
		if err == nil {
			tr.Result, err = calc.Evaluate(wavelengths, intensity, filtered)
		}

		tr.Err = err
		trials = append(trials, tr)

		return nil
	}

	for _, fs := range grid.FIRSampleRates {
		for _, fc := range grid.FIRCutoffs {
			for _, taps := range grid.FIRTaps {
				err := run(MethodFIR, fmt.Sprintf("fs=%g cutoff=%g taps=%d", fs, fc, taps), func() ([]float64, error) {
					h, err := fir.Lowpass(taps, fc, fs)
					if err != nil {
						return nil, err
					}

					return fir.FiltFilt(h, intensity)
				})
				if err != nil {
					return trials, err
				}
			}
		}
	}

	for _, w := range grid.MovingMeanWindows {
		err := run(MethodMovingMean, fmt.Sprintf("window=%d", w), func() ([]float64, error) {
			return smooth.MovingMeanSame(intensity, w)
		})
		if err != nil {
			return trials, err
		}
	}

	for _, w := range grid.MedianWindows {
		err := run(MethodMedian, fmt.Sprintf("window=%d", w), func() ([]float64, error) {
			return smooth.Median(intensity, w)
		})
		if err != nil {
			return trials, err
		}
	}

	for _, fs := range grid.ButterSampleRates {
		for _, fc := range grid.ButterCutoffs {
			for _, order := range grid.ButterOrders {
				err := run(MethodButterworth, fmt.Sprintf("fs=%g cutoff=%g order=%d", fs, fc, order), func() ([]float64, error) {
					return smooth.Butterworth(intensity, fc, order, fs)
				})
				if err != nil {
					return trials, err
				}
			}
		}
	}

	for _, w := range grid.SavGolWindows {
		for _, order := range grid.SavGolOrders {
			err := run(MethodSavGol, fmt.Sprintf("window=%d order=%d", w, order), func() ([]float64, error) {
				return smooth.SavitzkyGolay(intensity, w, order)
			})
			if err != nil {
				return trials, err
			}
		}
	}

	return trials, nil
}

// Rank orders successful trials by SNR, best first; failed trials and NaN
// scores go last.
func Rank(trials []Trial) []Trial {
	out := slices.Clone(trials)

	score := func(t Trial) float64 {
		if t.Err != nil || math.IsNaN(t.Result.SNR) {
			return math.Inf(-1)
		}
		return t.Result.SNR
	}

	slices.SortStableFunc(out, func(a, b Trial) int {
		return cmp.Compare(score(b), score(a))
	})

	return out
}
