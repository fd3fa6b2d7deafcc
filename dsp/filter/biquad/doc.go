// Package biquad provides second-order IIR sections and cascades.
//
// A [Section] runs Direct Form II Transposed; a [Chain] cascades sections
// for higher orders. Both can be primed to their steady state for a constant
// input, which the zero-phase runner in dsp/filter/zerophase relies on.
// Coefficient design lives in dsp/filter/design.
package biquad
