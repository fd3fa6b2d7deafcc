package anova

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrTooFewGroups is returned when fewer than two non-empty groups exist.
	ErrTooFewGroups = errors.New("anova: need at least two non-empty groups")

	// ErrShape is returned when rows, labels and wavelengths disagree.
	ErrShape = errors.New("anova: inconsistent data shape")
)

// OneWay returns the F statistic and p-value of the one-way ANOVA across
// groups. Empty groups are ignored. When every group is constant the test is
// undefined: equal constants give F = NaN, p = NaN; different constants give
// F = +Inf, p = 0.
func OneWay(groups ...[]float64) (f, p float64, err error) {
	var (
		k     int
		n     int
		total float64
	)

	for _, g := range groups {
		if len(g) == 0 {
			continue
		}

		k++
		n += len(g)

		for _, v := range g {
			total += v
		}
	}

	if k < 2 {
		return math.NaN(), math.NaN(), ErrTooFewGroups
	}

	if n <= k {
		return math.NaN(), math.NaN(), fmt.Errorf("anova: %d samples in %d groups leave no within-group freedom", n, k)
	}

	grand := total / float64(n)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}

		var sum float64
		for _, v := range g {
			sum += v
		}

		mean := sum / float64(len(g))
		d := mean - grand
		ssBetween += float64(len(g)) * d * d

		for _, v := range g {
			e := v - mean
			ssWithin += e * e
		}
	}

	dfB := float64(k - 1)
	dfW := float64(n - k)

	msB := ssBetween / dfB
	msW := ssWithin / dfW

	switch {
	case msW == 0 && msB == 0:
		return math.NaN(), math.NaN(), nil
	case msW == 0:
		return math.Inf(1), 0, nil
	}

	f = msB / msW
	p = distuv.F{D1: dfB, D2: dfW}.Survival(f)

	return f, p, nil
}

// PerColumn runs OneWay for each column of rows, grouping rows by label.
// Columns whose test is undefined get p = NaN.
func PerColumn(rows [][]float64, labels []string) ([]float64, error) {
	if len(rows) != len(labels) || len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(rows), len(labels))
	}

	width := len(rows[0])
	for _, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: ragged rows", ErrShape)
		}
	}

	classes := slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	if len(classes) < 2 {
		return nil, ErrTooFewGroups
	}

	members := make([][]int, len(classes))
	for i, l := range labels {
		c, _ := slices.BinarySearch(classes, l)
		members[c] = append(members[c], i)
	}

	groups := make([][]float64, len(classes))
	for c := range groups {
		groups[c] = make([]float64, len(members[c]))
	}

	p := make([]float64, width)
	for col := range width {
		for c, idx := range members {
			for j, r := range idx {
				groups[c][j] = rows[r][col]
			}
		}

		_, pv, err := OneWay(groups...)
		if err != nil {
			return nil, err
		}

		p[col] = pv
	}

	return p, nil
}

// Region is an inclusive wavelength interval.
type Region struct {
	Start, End float64
}

// Significant returns the wavelengths whose p-value is below alpha.
func Significant(wavelengths, p []float64, alpha float64) []float64 {
	var out []float64
	for i, pv := range p {
		if pv < alpha {
			out = append(out, wavelengths[i])
		}
	}

	return out
}

// Regions merges sorted significant wavelengths into regions; a gap larger
// than minGap between neighbours starts a new region.
func Regions(significant []float64, minGap float64) []Region {
	if len(significant) == 0 {
		return nil
	}

	var out []Region

	start := significant[0]
	for i := 1; i < len(significant); i++ {
		if significant[i]-significant[i-1] > minGap {
			out = append(out, Region{Start: start, End: significant[i-1]})
			start = significant[i]
		}
	}

	return append(out, Region{Start: start, End: significant[len(significant)-1]})
}

// ROI runs PerColumn, thresholds at alpha and merges the result with
// Regions. It returns the regions and all significant wavelengths.
func ROI(rows [][]float64, labels []string, wavelengths []float64, alpha, minGap float64) ([]Region, []float64, error) {
	p, err := PerColumn(rows, labels)
	if err != nil {
		return nil, nil, err
	}

	if len(p) != len(wavelengths) {
		return nil, nil, fmt.Errorf("%w: %d columns, %d wavelengths", ErrShape, len(p), len(wavelengths))
	}

	sig := Significant(wavelengths, p, alpha)

	return Regions(sig, minGap), sig, nil
}
