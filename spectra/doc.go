// Package spectra turns raw spectrometer readings into comparable spectra.
//
// Every reading passes the same stages in order: baseline subtraction (dark
// reference, own mean or none), smoothing, resampling onto a fixed
// wavelength grid, offset and scale normalization and a near-infrared
// quality check. A [Processor] runs the stages over a directory of exports
// and collects the surviving [Sample] values into a [Batch].
//
// Dark references are memoized per integration time in an explicit
// [DarkCache] owned by the Processor; nothing is shared between runs.
package spectra
