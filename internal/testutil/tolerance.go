package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual stops the test at the first channel where got
// and want differ by more than eps. NaN matches only NaN.
func RequireSliceNearlyEqual(tb testing.TB, got, want []float64, eps float64) {
	tb.Helper()
	if len(got) != len(want) {
		tb.Fatalf("got %d channels, want %d", len(got), len(want))
		return
	}
	for i, g := range got {
		w := want[i]
		if math.IsNaN(g) || math.IsNaN(w) {
			if math.IsNaN(g) != math.IsNaN(w) {
				tb.Fatalf("channel %d: got %g, want %g", i, g, w)
				return
			}
			continue
		}
		if d := math.Abs(g - w); d > eps {
			tb.Fatalf("channel %d: got %g, want %g (off by %g, eps %g)", i, g, w, d, eps)
			return
		}
	}
}

// RequireFinite stops the test at the first NaN or infinite channel.
func RequireFinite(tb testing.TB, x []float64) {
	tb.Helper()
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			tb.Fatalf("channel %d is %g", i, v)
			return
		}
	}
}
