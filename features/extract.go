package features

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/cwbudde/algo-spectro/spectra"
	"github.com/cwbudde/algo-spectro/stats/descriptive"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithQuantize scales intensities by scale and truncates them to integers
// before any feature is computed. Non-finite values become 0.
func WithQuantize(scale float64) Option {
	return func(e *Extractor) {
		e.quantize = scale
	}
}

// WithExtraBands sets how many distinct ratio bands get the per-band
// features. The default is 3; 0 disables them.
func WithExtraBands(n int) Option {
	return func(e *Extractor) {
		e.extraBands = max(n, 0)
	}
}

// Extractor computes one feature vector per spectrum.
type Extractor struct {
	ratios     []Ratio
	bands      []Band
	extraBands int
	quantize   float64
	names      []string
}

// NewExtractor returns an extractor for ratios. At least one ratio is
// required.
func NewExtractor(ratios []Ratio, opts ...Option) (*Extractor, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("%w: no ratios", ErrInvalidRatio)
	}
	for _, r := range ratios {
		if err := r.Num.Validate(); err != nil {
			return nil, fmt.Errorf("ratio %q: %w", r.Name, err)
		}
		if err := r.Den.Validate(); err != nil {
			return nil, fmt.Errorf("ratio %q: %w", r.Name, err)
		}
	}

	e := &Extractor{
		ratios:     slices.Clone(ratios),
		extraBands: 3,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.bands = DistinctBands(e.ratios)
	if len(e.bands) > e.extraBands {
		e.bands = e.bands[:e.extraBands]
	}

	for _, r := range e.ratios {
		e.names = append(e.names, r.Name)
	}
	for _, prefix := range []string{"AUC", "Peak_to_Trough", "STD", "Mean_Intensity"} {
		for j := range e.bands {
			e.names = append(e.names, fmt.Sprintf("%s_%d", prefix, j+1))
		}
	}

	return e, nil
}

// Names returns the feature names in vector order: the ratios, then AUC,
// Peak_to_Trough, STD and Mean_Intensity for each extra band.
func (e *Extractor) Names() []string { return slices.Clone(e.names) }

// Ratios returns the configured ratios.
func (e *Extractor) Ratios() []Ratio { return slices.Clone(e.ratios) }

// Extract returns the feature vector of s.
func (e *Extractor) Extract(s spectra.Spectrum) ([]float64, error) {
	if s.Len() != len(s.Wavelengths) {
		return nil, fmt.Errorf("%w: %d wavelengths, %d intensities",
			spectra.ErrLengthMismatch, len(s.Wavelengths), s.Len())
	}

	x := s.Intensity
	if e.quantize != 0 {
		x = quantize(x, e.quantize)
	}

	out := make([]float64, 0, len(e.names))

	for _, r := range e.ratios {
		out = append(out, PowerRatio(x, s.Wavelengths, r))
	}

	nb := len(e.bands)
	extra := make([]float64, 4*nb)
	for j, b := range e.bands {
		f := BandFeatures(x, s.Wavelengths, b)
		extra[j] = f.AUC
		extra[nb+j] = f.PeakToTrough
		extra[2*nb+j] = f.STD
		extra[3*nb+j] = f.Mean
	}

	return append(out, extra...), nil
}

func quantize(x []float64, scale float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		q := v * scale
		if math.IsNaN(q) || math.IsInf(q, 0) {
			continue
		}
		out[i] = math.Trunc(q)
	}
	return out
}

// Power returns the sum of |x| over the band.
func Power(x, wavelengths []float64, b Band) float64 {
	idx := b.Indices(wavelengths)
	seg := make([]float64, len(idx))
	for k, i := range idx {
		seg[k] = x[i]
	}
	return floats.Norm(seg, 1)
}

// PowerRatio returns Power(Num) / Power(Den) rounded half to even at two
// decimals, or NaN when the denominator power is zero.
func PowerRatio(x, wavelengths []float64, r Ratio) float64 {
	den := Power(x, wavelengths, r.Den)
	if den == 0 {
		return math.NaN()
	}
	return math.RoundToEven(Power(x, wavelengths, r.Num)/den*100) / 100
}

// BandStats holds the per-band features.
type BandStats struct {
	AUC          float64
	PeakToTrough float64
	STD          float64
	Mean         float64
}

// BandFeatures computes the trapezoidal area over wavelength, max/min,
// population standard deviation and mean of x within b. An empty band
// yields AUC 0 and NaN elsewhere; a zero minimum makes PeakToTrough NaN.
func BandFeatures(x, wavelengths []float64, b Band) BandStats {
	idx := b.Indices(wavelengths)
	if len(idx) == 0 {
		return BandStats{PeakToTrough: math.NaN(), STD: math.NaN(), Mean: math.NaN()}
	}

	seg := make([]float64, len(idx))
	wl := make([]float64, len(idx))
	for k, i := range idx {
		seg[k] = x[i]
		wl[k] = wavelengths[i]
	}

	st := descriptive.Calculate(seg)

	ptt := math.NaN()
	if st.Min != 0 {
		ptt = st.Max / st.Min
	}

	return BandStats{
		AUC:          descriptive.Trapezoid(seg, wl),
		PeakToTrough: ptt,
		STD:          st.Std,
		Mean:         st.Mean,
	}
}

// Table is a feature table: one row per sample.
type Table struct {
	Names  []string
	Rows   [][]float64
	Labels []string

	// Groups holds the acquisition group of each row, used to keep
	// related readings on one side of a split.
	Groups []string
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ExtractAll extracts every sample concurrently with at most workers
// goroutines (<= 0 uses GOMAXPROCS). Each goroutine writes only its own
// row. The first error cancels the remaining work.
func ExtractAll(ctx context.Context, e *Extractor, samples []spectra.Sample, workers int) (*Table, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	t := &Table{
		Names:  e.Names(),
		Rows:   make([][]float64, len(samples)),
		Labels: make([]string, len(samples)),
		Groups: make([]string, len(samples)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := e.Extract(samples[i].Spectrum)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			t.Rows[i] = row
			return nil
		})
		t.Labels[i] = samples[i].Meta.Label
		t.Groups[i] = samples[i].Meta.Group
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return t, nil
}

// ColumnMeans returns the NaN-ignoring mean of every column. A column with
// no finite value has mean NaN.
func (t *Table) ColumnMeans() []float64 {
	means := make([]float64, len(t.Names))

	for j := range means {
		var (
			sum float64
			n   int
		)
		for _, row := range t.Rows {
			if v := row[j]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			means[j] = math.NaN()
			continue
		}
		means[j] = sum / float64(n)
	}

	return means
}

// FillMissing replaces NaN cells by the column's value in means, or 0
// when that mean is NaN itself. It returns the number of cells filled.
func (t *Table) FillMissing(means []float64) int {
	filled := 0

	for _, row := range t.Rows {
		for j, v := range row {
			if !math.IsNaN(v) {
				continue
			}
			fill := 0.0
			if j < len(means) && !math.IsNaN(means[j]) {
				fill = means[j]
			}
			row[j] = fill
			filled++
		}
	}

	return filled
}

// Subset returns the table restricted to the given rows. Row slices are
// shared.
func (t *Table) Subset(idx []int) *Table {
	out := &Table{
		Names:  t.Names,
		Rows:   make([][]float64, len(idx)),
		Labels: make([]string, len(idx)),
		Groups: make([]string, len(idx)),
	}
	for k, i := range idx {
		out.Rows[k] = t.Rows[i]
		out.Labels[k] = t.Labels[i]
		if i < len(t.Groups) {
			out.Groups[k] = t.Groups[i]
		}
	}
	return out
}
