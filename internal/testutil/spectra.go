package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// GaussianPeak evaluates baseline + height*exp(-((x-center)/width)^2) at
// every position in x.
func GaussianPeak(x []float64, center, width, height, baseline float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		d := (v - center) / width
		out[i] = baseline + height*math.Exp(-d*d)
	}
	return out
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path. The test fails on any I/O error.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
