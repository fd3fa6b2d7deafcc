// Package design provides IIR lowpass coefficient designers.
//
// [Lowpass] is the RBJ cookbook second-order section. [ButterworthLP]
// cascades such sections with Butterworth pole quality factors, adding a
// first-order section for odd orders. The results run on dsp/filter/biquad.
package design
