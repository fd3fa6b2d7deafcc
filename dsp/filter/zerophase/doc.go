// Package zerophase runs a causal filter forward and backward over a finite
// signal so the combined response has zero phase and squared magnitude.
//
// The signal is extended at both ends by odd reflection and each pass starts
// from the filter's steady state for its first input sample, so constant and
// slowly varying signals pass through without edge transients.
package zerophase
