package spectra

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-spectro/dsp/interp"
	"github.com/cwbudde/algo-spectro/stats/descriptive"
	"github.com/cwbudde/algo-vecmath"
)

// NormMode selects how the scale reference is taken.
type NormMode string

const (
	// NormBand divides by the median over [Lo, Hi].
	NormBand NormMode = "band"

	// NormPoint divides by the sample nearest Point.
	NormPoint NormMode = "point"
)

// NormRef configures normalization.
type NormRef struct {
	Mode  NormMode
	Point float64
	Lo    float64
	Hi    float64

	// Floor is the value the spectrum minimum is shifted to.
	Floor float64
}

// DefaultNormRef returns the 635-641 nm median reference with a 0.1 floor.
func DefaultNormRef() NormRef {
	return NormRef{
		Mode:  NormBand,
		Point: 630,
		Lo:    635,
		Hi:    641,
		Floor: 0.1,
	}
}

// Normalization records what Normalize did to a spectrum.
type Normalization struct {
	Offset float64
	Factor float64
}

// Check reports ErrReferenceOutOfRange when the reference does not fall on
// the wavelength grid.
func (r NormRef) Check(wavelengths []float64) error {
	_, err := r.indices(wavelengths)
	return err
}

func (r NormRef) indices(wavelengths []float64) ([]int, error) {
	if len(wavelengths) == 0 {
		return nil, ErrEmptySpectrum
	}

	switch r.Mode {
	case NormPoint:
		if r.Point < wavelengths[0] || r.Point > wavelengths[len(wavelengths)-1] {
			return nil, fmt.Errorf("%w: %g nm not in [%g, %g]", ErrReferenceOutOfRange,
				r.Point, wavelengths[0], wavelengths[len(wavelengths)-1])
		}
		return []int{interp.NearestIndex(wavelengths, r.Point)}, nil

	case NormBand, "":
		idx := interp.Range(wavelengths, r.Lo, r.Hi)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%w: no wavelength in %g-%g nm", ErrReferenceOutOfRange, r.Lo, r.Hi)
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("spectra: unknown normalization mode %q", r.Mode)
	}
}

// Normalize shifts s so that its minimum equals ref.Floor and divides the
// result by the reference value: the median over the band or the sample
// nearest the reference point.
func Normalize(s Spectrum, ref NormRef) (Spectrum, Normalization, error) {
	if err := s.Validate(); err != nil {
		return Spectrum{}, Normalization{}, err
	}

	idx, err := ref.indices(s.Wavelengths)
	if err != nil {
		return Spectrum{}, Normalization{}, err
	}

	offset := ref.Floor - slices.Min(s.Intensity)

	y := make([]float64, len(s.Intensity))
	for i, v := range s.Intensity {
		y[i] = v + offset
	}

	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = y[i]
	}
	factor := descriptive.Median(vals)

	vecmath.ScaleBlock(y, y, 1/factor)

	return Spectrum{Wavelengths: s.Wavelengths, Intensity: y},
		Normalization{Offset: offset, Factor: factor}, nil
}
