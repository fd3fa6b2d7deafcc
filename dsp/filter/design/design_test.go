package design

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-spectro/dsp/filter/biquad"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func magDB(sections []biquad.Coefficients, freq, sr float64) float64 {
	h := complex(1, 0)
	for _, s := range sections {
		h *= s.Response(freq, sr)
	}

	return 20 * math.Log10(cmplx.Abs(h))
}

// ---------------------------------------------------------------------------
// RBJ lowpass
// ---------------------------------------------------------------------------

func TestLowpass_UnityDC(t *testing.T) {
	c, err := Lowpass(100, defaultQ, 2048)
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(c.DCGain(), 1, 1e-12) {
		t.Fatalf("DC gain=%v, want 1", c.DCGain())
	}

	if db := magDB([]biquad.Coefficients{c}, 100, 2048); !almostEqual(db, -3.0103, 1e-3) {
		t.Fatalf("corner gain=%v dB, want -3.01", db)
	}
}

func TestLowpass_InvalidFrequency(t *testing.T) {
	for _, f := range []float64{0, -10, 1024, 1500} {
		if _, err := Lowpass(f, 0.7, 2048); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("freq=%v: got %v", f, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Butterworth cascade
// ---------------------------------------------------------------------------

func TestButterworthLP_SectionsAndCorner(t *testing.T) {
	for order := 1; order <= 6; order++ {
		sections, err := ButterworthLP(10, order, 2048)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}

		if len(sections) != (order+1)/2 {
			t.Fatalf("order %d: %d sections", order, len(sections))
		}

		if db := magDB(sections, 0, 2048); !almostEqual(db, 0, 1e-9) {
			t.Fatalf("order %d: DC=%v dB", order, db)
		}

		if db := magDB(sections, 10, 2048); !almostEqual(db, -3.0103, 1e-3) {
			t.Fatalf("order %d: corner=%v dB", order, db)
		}
	}
}

func TestButterworthLP_RolloffIncreasesWithOrder(t *testing.T) {
	prev := 0.0
	for _, order := range []int{2, 4, 6} {
		sections, err := ButterworthLP(10, order, 2048)
		if err != nil {
			t.Fatal(err)
		}

		db := magDB(sections, 100, 2048)
		if db >= prev {
			t.Fatalf("order %d: %v dB not below %v dB", order, db, prev)
		}

		prev = db
	}
}

func TestButterworthLP_InvalidOrder(t *testing.T) {
	if _, err := ButterworthLP(10, 0, 2048); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("got %v", err)
	}
}

func TestButterworthQ(t *testing.T) {
	if q := butterworthQ(2, 0); !almostEqual(q, defaultQ, 1e-12) {
		t.Fatalf("order 2 Q=%v, want %v", q, defaultQ)
	}
}
