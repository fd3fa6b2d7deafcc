package spectra

import (
	"fmt"
	"slices"
	"strings"
)

// Label values.
const (
	LabelStone     = "Stone"
	LabelTissue    = "Tissue"
	LabelNonTissue = "Non-Tissue"
)

// LabelScheme selects how target names become class labels.
type LabelScheme string

const (
	// SchemeStone maps stone targets to Stone and everything else to Tissue.
	SchemeStone LabelScheme = "stone"

	// SchemeTissue maps instruments and stones to Non-Tissue and tissue
	// sub-types to Tissue; other targets keep their name.
	SchemeTissue LabelScheme = "tissue"
)

// Labeler maps target names to class labels.
type Labeler struct {
	Scheme LabelScheme

	// Stones are the targets labelled Stone (compared upper-case).
	Stones []string

	// NonTissue are the targets labelled Non-Tissue. Any target starting
	// with "Access Sheath" is Non-Tissue as well.
	NonTissue []string

	// TissueAliases are the targets labelled Tissue.
	TissueAliases []string
}

// DefaultLabeler returns a Labeler for scheme with the usual target lists.
func DefaultLabeler(scheme LabelScheme) Labeler {
	return Labeler{
		Scheme: scheme,
		Stones: []string{"COM", "UA", "BEGO"},
		NonTissue: []string{
			"Endoscope", "COM", "UA", "BEGO", "Access Sheath", "No Target",
			"Guidewire", "CHPD", "CYS", "MAGPH", "MAPH",
		},
		TissueAliases: []string{"Tissue-Calyx", "Tissue-Ureter"},
	}
}

// Validate checks the scheme.
func (l Labeler) Validate() error {
	switch l.Scheme {
	case SchemeStone, SchemeTissue:
		return nil
	default:
		return fmt.Errorf("spectra: unknown label scheme %q", l.Scheme)
	}
}

// Label returns the class label of target. ok is false for targets that
// must be skipped (empty or UNKNOWN).
func (l Labeler) Label(target string) (label string, ok bool) {
	target = strings.TrimSpace(target)
	upper := strings.ToUpper(target)
	if upper == "" || upper == "UNKNOWN" {
		return "", false
	}

	switch l.Scheme {
	case SchemeTissue:
		if slices.Contains(l.NonTissue, target) || strings.HasPrefix(target, "Access Sheath") {
			return LabelNonTissue, true
		}
		if slices.Contains(l.TissueAliases, target) {
			return LabelTissue, true
		}
		return target, true

	default:
		if slices.Contains(l.Stones, upper) {
			return LabelStone, true
		}
		return LabelTissue, true
	}
}
