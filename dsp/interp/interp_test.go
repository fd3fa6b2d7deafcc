package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spectro/internal/testutil"
)

func TestLinearIdentityOnNativeGrid(t *testing.T) {
	x := Linspace(400, 940, 50)
	y := testutil.DeterministicNoise(3, 10, 50)

	got, err := Linear(x, y, x)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, y, 1e-12)
}

func TestLinearMidpointsAndExtrapolation(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{0, 10, 30}

	got, err := Linear(x, y, []float64{-1, 0.5, 1.5, 3})
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{-10, 5, 20, 50}, 1e-12)
}

func TestLinearUnsortedInput(t *testing.T) {
	got, err := Linear([]float64{2, 0, 1}, []float64{30, 0, 10}, []float64{0.5, 1.5})
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{5, 20}, 1e-12)
}

func TestLinearErrors(t *testing.T) {
	if _, err := Linear([]float64{1}, []float64{1}, nil); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("got %v, want ErrTooFewPoints", err)
	}

	if _, err := Linear([]float64{1, 2}, []float64{1}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("got %v, want ErrLengthMismatch", err)
	}

	if _, err := Linear([]float64{1, 1}, []float64{1, 2}, nil); !errors.Is(err, ErrDuplicateX) {
		t.Fatalf("got %v, want ErrDuplicateX", err)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NewLinear1D([]float64{400, bad, 402}, []float64{1, 2, 3}); !errors.Is(err, ErrNonFiniteX) {
			t.Fatalf("x=%g: got %v, want ErrNonFiniteX", bad, err)
		}
	}
}

func TestLinspace(t *testing.T) {
	grid := Linspace(400, 940, 2048)
	if len(grid) != 2048 || grid[0] != 400 || grid[2047] != 940 {
		t.Fatalf("unexpected grid ends: len=%d first=%v last=%v", len(grid), grid[0], grid[len(grid)-1])
	}

	testutil.RequireSliceNearlyEqual(t, Linspace(0, 1, 5), []float64{0, 0.25, 0.5, 0.75, 1}, 1e-15)

	if Linspace(0, 1, 0) != nil {
		t.Fatal("expected nil for n=0")
	}
}

func TestNearestIndexAndRange(t *testing.T) {
	x := []float64{600, 620, 629, 631.5, 640}

	if i := NearestIndex(x, 630); i != 2 {
		t.Fatalf("NearestIndex=%d, want 2", i)
	}

	if i := NearestIndex(nil, 1); i != -1 {
		t.Fatalf("NearestIndex(nil)=%d, want -1", i)
	}

	got := Range(x, 625, 635)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("Range=%v, want [2 3]", got)
	}
}
