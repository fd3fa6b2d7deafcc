package fir

import (
	"math"
	"math/cmplx"
)

// Filter is a direct-form FIR filter.
//
// The delay line is stored twice back to back so that the most recent
// len(coeffs) inputs always form one contiguous window. The coefficients are
// kept reversed to match that window, turning each output into a plain dot
// product.
type Filter struct {
	rev   []float64 // coefficients, reversed
	delay []float64 // 2*len(rev)
	pos   int
}

// New creates a FIR filter from the given coefficient slice.
// The coefficients are copied. The filter order is len(coeffs)-1.
func New(coeffs []float64) *Filter {
	n := len(coeffs)

	rev := make([]float64, n)
	for i, c := range coeffs {
		rev[n-1-i] = c
	}

	return &Filter{
		rev:   rev,
		delay: make([]float64, 2*n),
	}
}

// ProcessSample filters one input sample.
//
//	y[n] = sum_{k=0}^{N-1} h[k] * x[n-k]
func (f *Filter) ProcessSample(x float64) float64 {
	n := len(f.rev)
	if n == 0 {
		return 0
	}

	f.delay[f.pos] = x
	f.delay[f.pos+n] = x

	f.pos++
	if f.pos == n {
		f.pos = 0
	}

	// delay[pos : pos+n] holds x[n-N+1] ... x[n], oldest first.
	window := f.delay[f.pos : f.pos+n]

	var y float64
	for k, c := range f.rev {
		y += c * window[k]
	}

	return y
}

// ProcessBlock filters a block of samples in-place.
func (f *Filter) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x)
	}
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
func (f *Filter) ProcessBlockTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]
	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

// Reset clears the delay line to zero.
func (f *Filter) Reset() {
	clear(f.delay)
	f.pos = 0
}

// Prime loads the delay line with x, the state reached after a constant
// input x. The next output of a primed filter is DCGain()*x.
func (f *Filter) Prime(x float64) {
	for i := range f.delay {
		f.delay[i] = x
	}
	f.pos = 0
}

// Order returns the filter order (len(coeffs) - 1).
func (f *Filter) Order() int {
	return len(f.rev) - 1
}

// Coefficients returns a copy of the filter coefficients in natural order.
func (f *Filter) Coefficients() []float64 {
	n := len(f.rev)

	c := make([]float64, n)
	for i, v := range f.rev {
		c[n-1-i] = v
	}

	return c
}

// DCGain returns the sum of the coefficients.
func (f *Filter) DCGain() float64 {
	var g float64
	for _, c := range f.rev {
		g += c
	}

	return g
}

// Response computes the complex frequency response H(e^{-jw}) at the given
// frequency (Hz) and sample rate (Hz).
func (f *Filter) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	n := len(f.rev)

	var h complex128
	for i, c := range f.rev {
		k := n - 1 - i
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}

	return h
}

// MagnitudeDB returns the magnitude response in dB at the given frequency.
func (f *Filter) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(f.Response(freqHz, sampleRate)))
}
