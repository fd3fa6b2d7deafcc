package conv

import (
	"fmt"
	"slices"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Correlate computes the full cross-correlation of a and b in the time
// domain. Index k of the result corresponds to lag k-(len(b)-1):
//
//	r[lag] = sum_i a[i+lag] * b[i]
func Correlate(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}

	rev := slices.Clone(b)
	slices.Reverse(rev)

	return Direct(a, rev)
}

// CorrelateFFT computes the same result as Correlate through
// IFFT(FFT(a) * conj(FFT(b))).
func CorrelateFFT(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}

	n, m := len(a), len(b)
	fftSize := nextPowerOf2(n + m - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	aTime := make([]complex128, fftSize)
	bTime := make([]complex128, fftSize)
	for i, v := range a {
		aTime[i] = complex(v, 0)
	}
	for i, v := range b {
		bTime[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	bFreq := make([]complex128, fftSize)

	if err := plan.Forward(aFreq, aTime); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	if err := plan.Forward(bFreq, bTime); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range aFreq {
		aFreq[i] *= complex(real(bFreq[i]), -imag(bFreq[i]))
	}

	if err := plan.Inverse(aTime, aFreq); err != nil {
		return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// Circular result: non-negative lags at the front, negative at the back.
	result := make([]float64, n+m-1)
	for i := range n {
		result[m-1+i] = real(aTime[i])
	}
	for i := range m - 1 {
		result[i] = real(aTime[fftSize-m+1+i])
	}

	return result, nil
}

// FindPeak returns the index and value of the first maximum of corr, or
// (-1, 0) when corr is empty.
func FindPeak(corr []float64) (index int, value float64) {
	if len(corr) == 0 {
		return -1, 0
	}

	index, value = 0, corr[0]
	for i, v := range corr {
		if v > value {
			index, value = i, v
		}
	}

	return index, value
}

// LagFromIndex converts a correlation index to a lag, given len(b).
func LagFromIndex(index, lenB int) int {
	return index - (lenB - 1)
}
