package features

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-spectro/dsp/interp"
)

var (
	// ErrInvalidBand is returned for a band that does not parse as "lo-hi"
	// with lo < hi.
	ErrInvalidBand = errors.New("features: invalid band")

	// ErrInvalidRatio is returned for a ratio definition in none of the
	// accepted shapes.
	ErrInvalidRatio = errors.New("features: invalid ratio")
)

// Band is an inclusive wavelength interval in nm.
type Band struct {
	Lo float64
	Hi float64
}

// ParseBand parses "460-490".
func ParseBand(s string) (Band, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Band{}, fmt.Errorf("%w: %q", ErrInvalidBand, s)
	}

	a, errLo := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	b, errHi := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if errLo != nil || errHi != nil {
		return Band{}, fmt.Errorf("%w: %q", ErrInvalidBand, s)
	}

	band := Band{Lo: a, Hi: b}
	if err := band.Validate(); err != nil {
		return Band{}, err
	}

	return band, nil
}

// Validate checks Lo < Hi.
func (b Band) Validate() error {
	if !(b.Lo < b.Hi) {
		return fmt.Errorf("%w: %g-%g", ErrInvalidBand, b.Lo, b.Hi)
	}
	return nil
}

// String formats the band as "lo-hi".
func (b Band) String() string {
	return strconv.FormatFloat(b.Lo, 'f', -1, 64) + "-" + strconv.FormatFloat(b.Hi, 'f', -1, 64)
}

// Indices returns the positions of wavelengths inside the band.
func (b Band) Indices(wavelengths []float64) []int {
	return interp.Range(wavelengths, b.Lo, b.Hi)
}

// Ratio is a named power ratio Num / Den.
type Ratio struct {
	Name string
	Num  Band
	Den  Band
}

// ParseRatio builds a ratio from one of the configuration shapes:
//
//	[460, 490, 515, 540]                      four band edges
//	["460-490", "515-540"]                    two band strings
//	{range1: "460-490", range2: "515-540"}    mapping
//
// Numbers may be ints, floats or numeric strings.
func ParseRatio(name string, v any) (Ratio, error) {
	r := Ratio{Name: name}

	var (
		num, den Band
		err      error
	)

	switch val := v.(type) {
	case []any:
		switch len(val) {
		case 4:
			var edges [4]float64
			for i, e := range val {
				if edges[i], err = toFloat(e); err != nil {
					return Ratio{}, fmt.Errorf("%w %q: %w", ErrInvalidRatio, name, err)
				}
			}
			num = Band{Lo: edges[0], Hi: edges[1]}
			den = Band{Lo: edges[2], Hi: edges[3]}
		case 2:
			num, den, err = parseBandPair(val[0], val[1])
		default:
			return Ratio{}, fmt.Errorf("%w %q: %d elements", ErrInvalidRatio, name, len(val))
		}
	case []string:
		if len(val) != 2 {
			return Ratio{}, fmt.Errorf("%w %q: %d elements", ErrInvalidRatio, name, len(val))
		}
		num, den, err = parseBandPair(val[0], val[1])
	case []float64:
		if len(val) != 4 {
			return Ratio{}, fmt.Errorf("%w %q: %d elements", ErrInvalidRatio, name, len(val))
		}
		num = Band{Lo: val[0], Hi: val[1]}
		den = Band{Lo: val[2], Hi: val[3]}
	case map[string]any:
		a, okA := val["range1"]
		b, okB := val["range2"]
		if !okA || !okB {
			return Ratio{}, fmt.Errorf("%w %q: need range1 and range2", ErrInvalidRatio, name)
		}
		num, den, err = parseBandPair(a, b)
	default:
		return Ratio{}, fmt.Errorf("%w %q: unsupported type %T", ErrInvalidRatio, name, v)
	}
	if err != nil {
		return Ratio{}, fmt.Errorf("%w %q: %w", ErrInvalidRatio, name, err)
	}

	if err := num.Validate(); err != nil {
		return Ratio{}, fmt.Errorf("ratio %q: %w", name, err)
	}
	if err := den.Validate(); err != nil {
		return Ratio{}, fmt.Errorf("ratio %q: %w", name, err)
	}

	r.Num, r.Den = num, den

	return r, nil
}

func parseBandPair(a, b any) (Band, Band, error) {
	sa, okA := a.(string)
	sb, okB := b.(string)
	if !okA || !okB {
		return Band{}, Band{}, fmt.Errorf("band pair must be strings, got %T and %T", a, b)
	}

	num, err := ParseBand(sa)
	if err != nil {
		return Band{}, Band{}, err
	}
	den, err := ParseBand(sb)
	if err != nil {
		return Band{}, Band{}, err
	}

	return num, den, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

// DistinctBands returns the bands used by ratios in order of first
// appearance, numerator before denominator.
func DistinctBands(ratios []Ratio) []Band {
	var out []Band
	seen := make(map[Band]bool)

	for _, r := range ratios {
		for _, b := range [2]Band{r.Num, r.Den} {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}

	return out
}

// DefaultRatios are the acquisition ratios used when none are configured.
func DefaultRatios() []Ratio {
	return []Ratio{
		{Name: "Ratio 1", Num: Band{460, 490}, Den: Band{515, 540}},
		{Name: "Ratio 2", Num: Band{550, 680}, Den: Band{515, 540}},
	}
}
