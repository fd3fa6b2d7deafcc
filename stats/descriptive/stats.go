package descriptive

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Stats holds summary statistics of a sample.
type Stats struct {
	Length   int
	Mean     float64
	Variance float64 // population
	Std      float64
	Skewness float64
	Kurtosis float64 // excess
	Min      float64
	MinPos   int
	Max      float64
	MaxPos   int
	Sum      float64
	AbsSum   float64
	Range    float64
}

// Calculate computes all statistics in a single pass using Welford's online
// update for the central moments. An empty input yields NaN moments and
// extrema with positions -1.
func Calculate(x []float64) Stats {
	n := len(x)
	if n == 0 {
		nan := math.NaN()
		return Stats{
			Mean: nan, Variance: nan, Std: nan, Skewness: nan, Kurtosis: nan,
			Min: nan, MinPos: -1, Max: nan, MaxPos: -1, Range: nan,
		}
	}

	var mean, m2, m3, m4, sum, absSum float64

	maxVal, maxPos := x[0], 0
	minVal, minPos := x[0], 0

	for i, v := range x {
		ni := float64(i + 1)
		delta := v - mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(i)

		// M4 before M3 before M2.
		m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m2 - 4*deltaN*m3
		m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		sum += v
		absSum += math.Abs(v)

		if v > maxVal {
			maxVal, maxPos = v, i
		}

		if v < minVal {
			minVal, minPos = v, i
		}
	}

	nf := float64(n)
	variance := m2 / nf

	var skewness, kurtosis float64
	if variance > 0 {
		skewness = (m3 / nf) / (variance * math.Sqrt(variance))
		kurtosis = (m4/nf)/(variance*variance) - 3
	}

	return Stats{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		Std:      math.Sqrt(variance),
		Skewness: skewness,
		Kurtosis: kurtosis,
		Min:      minVal,
		MinPos:   minPos,
		Max:      maxVal,
		MaxPos:   maxPos,
		Sum:      sum,
		AbsSum:   absSum,
		Range:    maxVal - minVal,
	}
}

// Mean returns the arithmetic mean, NaN for empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	return stat.Mean(x, nil)
}

// Std returns the population standard deviation, NaN for empty input.
func Std(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	_, v := stat.PopMeanVariance(x, nil)

	return math.Sqrt(v)
}

// Variance returns the population variance, NaN for empty input.
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	_, v := stat.PopMeanVariance(x, nil)

	return v
}

// Median returns the middle value of x, averaging the two central values
// for even lengths. NaN values are ignored; an input with no numbers
// yields NaN.
func Median(x []float64) float64 {
	s := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			s = append(s, v)
		}
	}

	if len(s) == 0 {
		return math.NaN()
	}

	slices.Sort(s)

	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}

	return (s[mid-1] + s[mid]) / 2
}

// Trapezoid integrates y over the sample positions x with the trapezoidal
// rule. x must be increasing. Fewer than two points integrate to 0.
func Trapezoid(y, x []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}

	return integrate.Trapezoidal(x, y)
}

// MSE returns the mean squared difference of a and b. Inputs of different
// or zero length yield NaN.
func MSE(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum / float64(len(a))
}

// Pearson returns the Pearson correlation coefficient of a and b. It is NaN
// for mismatched lengths, fewer than two samples or a constant input.
func Pearson(a, b []float64) float64 {
	if len(a) < 2 || len(a) != len(b) {
		return math.NaN()
	}

	return stat.Correlation(a, b, nil)
}

// MaxIn returns the largest x[i] over the given indices and false when
// idx is empty.
func MaxIn(x []float64, idx []int) (float64, bool) {
	if len(idx) == 0 {
		return 0, false
	}

	m := math.Inf(-1)
	for _, i := range idx {
		if x[i] > m {
			m = x[i]
		}
	}

	return m, true
}
