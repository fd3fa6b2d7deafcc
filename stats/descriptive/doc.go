// Package descriptive computes summary statistics of spectra and spectral
// segments: single-pass moments and extrema, medians, trapezoidal areas and
// agreement measures between two signals.
//
// Variances are population variances (divided by N), matching how band
// standard deviations are reported by the feature extractor.
package descriptive
