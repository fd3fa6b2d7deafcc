package spectra

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when two vectors that must align differ
	// in length.
	ErrLengthMismatch = errors.New("spectra: length mismatch")

	// ErrNotIncreasing is returned when wavelengths are not strictly
	// increasing.
	ErrNotIncreasing = errors.New("spectra: wavelengths not strictly increasing")

	// ErrEmptySpectrum is returned for spectra without samples.
	ErrEmptySpectrum = errors.New("spectra: empty spectrum")

	// ErrDarkReference wraps failures to load a dark reference.
	ErrDarkReference = errors.New("spectra: dark reference unavailable")

	// ErrReferenceOutOfRange is returned when the normalization reference
	// lies outside the wavelength grid.
	ErrReferenceOutOfRange = errors.New("spectra: normalization reference outside the wavelength grid")
)

// Spectrum pairs intensities with their wavelengths in nm.
type Spectrum struct {
	Wavelengths []float64
	Intensity   []float64
}

// Len returns the number of samples.
func (s Spectrum) Len() int { return len(s.Intensity) }

// Validate checks that the spectrum is non-empty, that both vectors have
// the same length and that wavelengths strictly increase.
func (s Spectrum) Validate() error {
	if len(s.Intensity) == 0 {
		return ErrEmptySpectrum
	}
	if len(s.Wavelengths) != len(s.Intensity) {
		return fmt.Errorf("%w: %d wavelengths, %d intensities", ErrLengthMismatch, len(s.Wavelengths), len(s.Intensity))
	}
	for i := 1; i < len(s.Wavelengths); i++ {
		if !(s.Wavelengths[i] > s.Wavelengths[i-1]) {
			return fmt.Errorf("%w at index %d", ErrNotIncreasing, i)
		}
	}
	return nil
}

// Metadata is carried unchanged from the raw reading to the final sample.
type Metadata struct {
	Target          string
	Label           string
	IntegrationTime string
	Source          string
	Emission        string
	ABStatus        string
	File            string

	// Group identifies readings that must stay on the same side of a
	// train/test split (one file, or one physical target).
	Group string

	Rotation int
	Position int
}

// Sample is a processed spectrum with its metadata.
type Sample struct {
	Spectrum
	Meta Metadata
}
