package spectra

import (
	"fmt"

	"github.com/cwbudde/algo-spectro/dsp/interp"
)

// Grid is an evenly spaced wavelength grid, both ends inclusive.
type Grid struct {
	Start  float64
	Stop   float64
	Points int
}

// DefaultGrid is the common support of all processed spectra.
var DefaultGrid = Grid{Start: 400, Stop: 940, Points: 2048}

// Validate checks start < stop and at least two points.
func (g Grid) Validate() error {
	if !(g.Start < g.Stop) {
		return fmt.Errorf("spectra: grid start %g must be below stop %g", g.Start, g.Stop)
	}
	if g.Points < 2 {
		return fmt.Errorf("spectra: grid needs at least 2 points, got %d", g.Points)
	}
	return nil
}

// Values returns the grid wavelengths.
func (g Grid) Values() []float64 {
	return interp.Linspace(g.Start, g.Stop, g.Points)
}

// Resample interpolates (wavelengths, x) linearly onto grid, extrapolating
// beyond the native range.
func Resample(wavelengths, x, grid []float64) (Spectrum, error) {
	if len(wavelengths) != len(x) {
		return Spectrum{}, fmt.Errorf("%w: %d wavelengths, %d intensities", ErrLengthMismatch, len(wavelengths), len(x))
	}

	y, err := interp.Linear(wavelengths, x, grid)
	if err != nil {
		return Spectrum{}, fmt.Errorf("spectra: resample: %w", err)
	}

	return Spectrum{Wavelengths: grid, Intensity: y}, nil
}
