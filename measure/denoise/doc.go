// Package denoise scores how well a smoothing filter cleans a spectrum.
//
// [Calculator] compares an original and a filtered spectrum over a signal
// band (default 470-680 nm) and a noise band (default 800-900 nm) and reports
// mean squared error, variance distortion, peak-to-noise ratios, Pearson
// correlation and the lag introduced by the filter. [Study] sweeps FIR,
// moving mean, median, Butterworth and Savitzky-Golay settings over one
// spectrum and returns one [Trial] per setting.
package denoise
