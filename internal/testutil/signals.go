package testutil

import (
	"math/rand"
	"slices"
)

// DeterministicNoise returns length values uniform in [-amplitude,
// amplitude) drawn from seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// DC returns length channels of value.
func DC(value float64, length int) []float64 {
	return slices.Repeat([]float64{value}, length)
}

// Ones is a flat unit spectrum of n channels.
func Ones(n int) []float64 { return DC(1, n) }

// NoisyPeak is GaussianPeak over x with DeterministicNoise(seed, noise)
// added to every channel.
func NoisyPeak(x []float64, center, width, height, baseline float64, seed int64, noise float64) []float64 {
	out := GaussianPeak(x, center, width, height, baseline)
	for i, v := range DeterministicNoise(seed, noise, len(x)) {
		out[i] += v
	}
	return out
}
