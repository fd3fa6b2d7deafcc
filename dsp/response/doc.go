// Package response samples and summarizes the frequency response of the
// smoothing filters.
//
// [Sample] evaluates any [Responder] (an FIR filter or a biquad chain) on an
// even grid from DC to Nyquist and derives magnitude in dB, unwrapped phase
// and group delay in samples. [Curve.Cutoff] locates the -3 dB point.
package response
