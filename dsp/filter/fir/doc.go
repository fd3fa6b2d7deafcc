// Package fir provides FIR lowpass design and a direct-form runtime.
//
// [Lowpass] designs windowed-sinc coefficients with the cutoff normalized to
// the Nyquist frequency. A [Filter] applies coefficients to a stream; [Apply]
// and [FiltFilt] cover the finite-signal cases, causal and zero-phase.
package fir
