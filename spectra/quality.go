package spectra

import (
	"strings"

	"github.com/cwbudde/algo-spectro/dsp/interp"
	"github.com/cwbudde/algo-spectro/stats/descriptive"
)

// Emission modes.
const (
	Emission    = "EMISSION"
	NonEmission = "NONEMISSION"
)

// QualityFilter rejects spectra whose maximum in the [Lo, Hi] band reaches
// a threshold chosen by light source and emission mode.
type QualityFilter struct {
	Lo, Hi float64

	// Thresholds is keyed by upper-case source, then emission mode.
	Thresholds map[string]map[string]float64

	// Default applies to pairs missing from Thresholds.
	Default float64
}

// DefaultQualityFilter returns the 750-900 nm saturation check with the
// empirical LED/Xenon table.
func DefaultQualityFilter() QualityFilter {
	return QualityFilter{
		Lo: 750,
		Hi: 900,
		Thresholds: map[string]map[string]float64{
			"LED":   {Emission: 0.1, NonEmission: 0.3},
			"XENON": {Emission: 0.08, NonEmission: 0.1},
		},
		Default: 0.1,
	}
}

// Threshold returns the limit for a source/emission pair.
func (q QualityFilter) Threshold(source, emission string) float64 {
	if byEmission, ok := q.Thresholds[strings.ToUpper(source)]; ok {
		if t, ok := byEmission[strings.ToUpper(emission)]; ok {
			return t
		}
	}
	return q.Default
}

// Accept reports whether the maximum of s over the band is below the
// threshold. Spectra without a sample in the band are rejected.
func (q QualityFilter) Accept(s Spectrum, source, emission string) bool {
	peak, ok := descriptive.MaxIn(s.Intensity, interp.Range(s.Wavelengths, q.Lo, q.Hi))
	if !ok {
		return false
	}
	return peak < q.Threshold(source, emission)
}
