// Package smooth provides finite-signal smoothers that complement the FIR
// lowpass: moving means with two edge conventions, a centered rolling
// median, Savitzky-Golay polynomial smoothing and a zero-phase Butterworth.
//
// Windows of even size w cover x[i-w/2 .. i-w/2+w-1], one sample more on
// the left.
package smooth
