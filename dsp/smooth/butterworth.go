package smooth

import (
	"github.com/cwbudde/algo-spectro/dsp/filter/biquad"
	"github.com/cwbudde/algo-spectro/dsp/filter/design"
	"github.com/cwbudde/algo-spectro/dsp/filter/zerophase"
)

// Butterworth applies a zero-phase Butterworth lowpass with the usual
// 3*(order+1) samples of edge padding.
func Butterworth(x []float64, cutoff float64, order int, sampleRate float64) ([]float64, error) {
	sections, err := design.ButterworthLP(cutoff, order, sampleRate)
	if err != nil {
		return nil, err
	}

	return zerophase.FiltFilt(biquad.NewChain(sections), x, 3*(order+1))
}
