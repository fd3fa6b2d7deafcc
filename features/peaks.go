package features

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/cwbudde/algo-spectro/stats/descriptive"
	"golang.org/x/sync/errgroup"
)

// PeakOptions filters the local maxima found by FindPeaks.
type PeakOptions struct {
	// Prominence is the minimum prominence; 0 keeps every peak.
	Prominence float64

	// Distance is the minimum spacing in samples between kept peaks;
	// lower peaks closer than that to a higher one are dropped. Values
	// below 1 disable the check.
	Distance int
}

// DefaultPeakOptions matches the acquisition analysis: prominence 0.02,
// distance 10 samples.
func DefaultPeakOptions() PeakOptions {
	return PeakOptions{Prominence: 0.02, Distance: 10}
}

// Peak is a local maximum of a sampled signal.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64

	// LeftBase and RightBase are the lowest points on either side before
	// the signal rises above the peak again.
	LeftBase  int
	RightBase int
}

// FindPeaks returns the local maxima of x in index order. A flat top
// counts as one peak at its middle (rounded down). Distance pruning is
// applied before the prominence threshold.
func FindPeaks(x []float64, opts PeakOptions) []Peak {
	idx := localMaxima(x)

	if opts.Distance > 1 && len(idx) > 1 {
		idx = pruneByDistance(x, idx, opts.Distance)
	}

	peaks := make([]Peak, 0, len(idx))
	for _, i := range idx {
		p := prominence(x, i)
		if p.Prominence < opts.Prominence {
			continue
		}
		peaks = append(peaks, p)
	}

	return peaks
}

func localMaxima(x []float64) []int {
	var out []int

	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}

	return out
}

// pruneByDistance keeps the highest peaks first and drops every lower peak
// within distance samples of a kept one. Ties favour the later index.
func pruneByDistance(x []float64, idx []int, distance int) []int {
	order := make([]int, len(idx))
	for k := range order {
		order[k] = k
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(x[idx[a]], x[idx[b]])
	})

	keep := make([]bool, len(idx))
	for k := range keep {
		keep[k] = true
	}

	for o := len(order) - 1; o >= 0; o-- {
		j := order[o]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && idx[j]-idx[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(idx) && idx[k]-idx[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := idx[:0:0]
	for k, i := range idx {
		if keep[k] {
			out = append(out, i)
		}
	}

	return out
}

func prominence(x []float64, i int) Peak {
	h := x[i]

	leftMin, leftBase := h, i
	for k := i; k >= 0 && x[k] <= h; k-- {
		if x[k] < leftMin {
			leftMin, leftBase = x[k], k
		}
	}

	rightMin, rightBase := h, i
	for k := i; k < len(x) && x[k] <= h; k++ {
		if x[k] < rightMin {
			rightMin, rightBase = x[k], k
		}
	}

	return Peak{
		Index:      i,
		Height:     h,
		Prominence: h - math.Max(leftMin, rightMin),
		LeftBase:   leftBase,
		RightBase:  rightBase,
	}
}

// TopPeaks returns the wavelengths of the n most prominent peaks of x,
// most prominent first.
func TopPeaks(x, wavelengths []float64, n int, opts PeakOptions) []float64 {
	peaks := FindPeaks(x, opts)

	slices.SortStableFunc(peaks, func(a, b Peak) int {
		return cmp.Compare(b.Prominence, a.Prominence)
	})

	if len(peaks) > n {
		peaks = peaks[:n]
	}

	out := make([]float64, len(peaks))
	for k, p := range peaks {
		out[k] = wavelengths[p.Index]
	}

	return out
}

// PeakPositions collects the TopPeaks wavelengths of every row.
func PeakPositions(rows [][]float64, wavelengths []float64, n int, opts PeakOptions) []float64 {
	var out []float64
	for _, x := range rows {
		out = append(out, TopPeaks(x, wavelengths, n, opts)...)
	}
	return out
}

// PeakRanges returns [p - tol, p + tol] for every position.
func PeakRanges(positions []float64, tol float64) []Band {
	out := make([]Band, len(positions))
	for k, p := range positions {
		out[k] = Band{Lo: p - tol, Hi: p + tol}
	}
	return out
}

// RangeMeans returns, per row, the mean intensity within each range. Rows
// are processed concurrently with at most workers goroutines (<= 0 uses
// GOMAXPROCS). An empty range yields NaN.
func RangeMeans(ctx context.Context, rows [][]float64, wavelengths []float64, ranges []Band, workers int) ([][]float64, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	indices := make([][]int, len(ranges))
	for k, r := range ranges {
		indices[k] = r.Indices(wavelengths)
	}

	out := make([][]float64, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, x := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(x) != len(wavelengths) {
				return fmt.Errorf("row %d: %d values for %d wavelengths", i, len(x), len(wavelengths))
			}

			means := make([]float64, len(indices))
			seg := make([]float64, 0, len(x))
			for k, idx := range indices {
				seg = seg[:0]
				for _, j := range idx {
					seg = append(seg, x[j])
				}
				means[k] = descriptive.Mean(seg)
			}
			out[i] = means

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
