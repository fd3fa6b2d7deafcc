// Package conv provides linear convolution and cross-correlation.
//
// [Direct] is the O(N*M) time-domain convolution used for short smoothing
// kernels; [ConvolveMode] trims it to the full, same or valid region.
// [CorrelateFFT] computes cross-correlation through algo-fft and is what the
// denoising metrics use to locate the lag between two spectra.
package conv
