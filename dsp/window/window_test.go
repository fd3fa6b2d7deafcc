package window

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGenerateAllTypes(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestGenerateSymmetric(t *testing.T) {
	w := Generate(TypeHamming, 101)
	for i := range w {
		if !almostEqual(w[i], w[len(w)-1-i], 1e-15) {
			t.Fatalf("w[%d]=%v w[%d]=%v", i, w[i], len(w)-1-i, w[len(w)-1-i])
		}
	}

	if !almostEqual(w[50], 1, 1e-15) {
		t.Fatalf("center=%v, want 1", w[50])
	}

	if !almostEqual(w[0], 0.08, 1e-15) {
		t.Fatalf("edge=%v, want 0.08", w[0])
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	same := true
	for i := range a {
		if !almostEqual(a[i], b[i], 1e-12) {
			same = false
			break
		}
	}

	if same {
		t.Fatal("periodic and symmetric windows should differ")
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("expected nil, got %v", w)
	}

	if _, err := Hamming(0); err == nil {
		t.Fatal("expected error for zero length")
	}

	if _, err := Blackman(-3); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"hamming", TypeHamming},
		{"hann", TypeHann},
		{"hanning", TypeHann},
		{"blackman", TypeBlackman},
		{"boxcar", TypeRectangular},
	}

	for _, tc := range tests {
		got, err := Parse(tc.name)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.name, err)
		}

		if got != tc.want {
			t.Fatalf("Parse(%q)=%v, want %v", tc.name, got, tc.want)
		}
	}

	if _, err := Parse("kaiser"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestCoherentGain(t *testing.T) {
	g, err := CoherentGain(Generate(TypeRectangular, 8))
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(g, 1, 1e-15) {
		t.Fatalf("gain=%v, want 1", g)
	}

	if _, err := CoherentGain(nil); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
}
