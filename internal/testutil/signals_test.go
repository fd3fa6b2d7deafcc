package testutil

import (
	"math"
	"os"
	"slices"
	"testing"
)

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 2, 256)
	if len(a) != 256 {
		t.Fatalf("len = %d, want 256", len(a))
	}
	if !slices.Equal(a, DeterministicNoise(42, 2, 256)) {
		t.Fatal("same seed gave different noise")
	}
	if slices.Equal(a, DeterministicNoise(43, 2, 256)) {
		t.Fatal("different seeds gave identical noise")
	}
	for i, v := range a {
		if v < -2 || v >= 2 {
			t.Fatalf("[%d] = %g outside [-2, 2)", i, v)
		}
	}
}

func TestFlatSpectra(t *testing.T) {
	if d := DC(0.5, 4); !slices.Equal(d, []float64{0.5, 0.5, 0.5, 0.5}) {
		t.Fatalf("DC = %v", d)
	}
	if o := Ones(3); !slices.Equal(o, []float64{1, 1, 1}) {
		t.Fatalf("Ones = %v", o)
	}
	if len(DC(1, 0)) != 0 {
		t.Fatal("DC(1, 0) not empty")
	}
}

func TestGaussianPeak(t *testing.T) {
	g := GaussianPeak([]float64{-1, 0, 1}, 0, 1, 2, 0.5)
	if g[1] != 2.5 {
		t.Fatalf("peak = %v, want 2.5", g[1])
	}
	if g[0] != g[2] {
		t.Fatalf("not symmetric: %v vs %v", g[0], g[2])
	}
	if math.Abs(g[0]-(0.5+2*math.Exp(-1))) > 1e-15 {
		t.Fatalf("g[0] = %v", g[0])
	}
}

func TestNoisyPeak(t *testing.T) {
	x := []float64{550, 555, 560, 565, 570}
	clean := GaussianPeak(x, 560, 10, 4, 1)
	nz := DeterministicNoise(7, 0.1, len(x))

	got := NoisyPeak(x, 560, 10, 4, 1, 7, 0.1)
	for i := range x {
		if math.Abs(got[i]-(clean[i]+nz[i])) > 1e-15 {
			t.Fatalf("[%d] = %g, want %g", i, got[i], clean[i]+nz[i])
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "sub/a.txt", "hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("content = %q", data)
	}
}
