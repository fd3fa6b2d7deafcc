package features

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-spectro/dsp/interp"
	"github.com/cwbudde/algo-spectro/internal/testutil"
	"github.com/cwbudde/algo-spectro/spectra"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// nmGrid is 400..940 nm in 1 nm steps.
func nmGrid() []float64 {
	return interp.Linspace(400, 940, 541)
}

// ---------------------------------------------------------------------------
// Bands and ratios
// ---------------------------------------------------------------------------

func TestParseBand(t *testing.T) {
	tests := []struct {
		in      string
		want    Band
		wantErr bool
	}{
		{"460-490", Band{460, 490}, false},
		{" 515 - 540 ", Band{515, 540}, false},
		{"632.5-641", Band{632.5, 641}, false},
		{"490-460", Band{}, true},
		{"460", Band{}, true},
		{"a-b", Band{}, true},
	}

	for _, tt := range tests {
		got, err := ParseBand(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidBand) {
				t.Errorf("ParseBand(%q) err=%v, want ErrInvalidBand", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBand(%q)=%v,%v want %v", tt.in, got, err, tt.want)
		}
	}

	if s := (Band{460, 490.5}).String(); s != "460-490.5" {
		t.Fatalf("String()=%q", s)
	}
}

func TestParseRatioShapes(t *testing.T) {
	want := Ratio{Name: "r", Num: Band{460, 490}, Den: Band{515, 540}}

	for _, v := range []any{
		[]any{460, 490, 515, 540},
		[]any{460.0, "490", 515, int64(540)},
		[]any{"460-490", "515-540"},
		[]string{"460-490", "515-540"},
		[]float64{460, 490, 515, 540},
		map[string]any{"range1": "460-490", "range2": "515-540"},
	} {
		got, err := ParseRatio("r", v)
		if err != nil {
			t.Fatalf("ParseRatio(%v): %v", v, err)
		}
		if got != want {
			t.Fatalf("ParseRatio(%v)=%+v, want %+v", v, got, want)
		}
	}

	for _, v := range []any{
		[]any{460, 490, 515},
		[]any{460, "x", 515, 540},
		[]any{460, 490},
		map[string]any{"range1": "460-490"},
		"460-490/515-540",
		[]any{490, 460, 515, 540},
	} {
		if _, err := ParseRatio("bad", v); err == nil {
			t.Errorf("ParseRatio(%v) = nil error", v)
		}
	}
}

func TestDistinctBands(t *testing.T) {
	got := DistinctBands(DefaultRatios())
	want := []Band{{460, 490}, {515, 540}, {550, 680}}

	if !slices.Equal(got, want) {
		t.Fatalf("DistinctBands=%v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// Features
// ---------------------------------------------------------------------------

func TestPowerRatio(t *testing.T) {
	wl := nmGrid()
	r := Ratio{Name: "r", Num: Band{460, 489}, Den: Band{515, 524}}

	// 30 samples of 1 over 10 samples of 1.
	if got := PowerRatio(testutil.Ones(len(wl)), wl, r); got != 3 {
		t.Fatalf("PowerRatio=%v, want 3", got)
	}

	// Absolute values are summed.
	if got := PowerRatio(testutil.DC(-2, len(wl)), wl, r); got != 3 {
		t.Fatalf("PowerRatio=%v, want 3", got)
	}

	// Rounded to two decimals.
	r.Den = Band{515, 521}
	if got := PowerRatio(testutil.Ones(len(wl)), wl, r); got != 4.29 {
		t.Fatalf("PowerRatio=%v, want 4.29", got)
	}

	if got := PowerRatio(make([]float64, len(wl)), wl, r); !math.IsNaN(got) {
		t.Fatalf("zero denominator gave %v, want NaN", got)
	}
}

func TestPowerRatioScaleInvariant(t *testing.T) {
	wl := nmGrid()
	x := testutil.GaussianPeak(wl, 560, 60, 4, 0.3)

	scaled := make([]float64, len(x))
	for i, v := range x {
		scaled[i] = 7.5 * v
	}

	for _, r := range DefaultRatios() {
		a := PowerRatio(x, wl, r)
		b := PowerRatio(scaled, wl, r)
		if a != b {
			t.Errorf("%s: %v vs scaled %v", r.Name, a, b)
		}
	}
}

func TestBandFeatures(t *testing.T) {
	wl := nmGrid()

	f := BandFeatures(wl, wl, Band{500, 510})

	if !almostEqual(f.AUC, 5050, 1e-9) {
		t.Errorf("AUC=%v, want 5050", f.AUC)
	}
	if !almostEqual(f.PeakToTrough, 1.02, 1e-12) {
		t.Errorf("PeakToTrough=%v, want 1.02", f.PeakToTrough)
	}
	if !almostEqual(f.STD, math.Sqrt(10), 1e-9) {
		t.Errorf("STD=%v, want sqrt(10)", f.STD)
	}
	if !almostEqual(f.Mean, 505, 1e-9) {
		t.Errorf("Mean=%v, want 505", f.Mean)
	}

	zero := BandFeatures(make([]float64, len(wl)), wl, Band{500, 510})
	if !math.IsNaN(zero.PeakToTrough) {
		t.Errorf("zero minimum PeakToTrough=%v, want NaN", zero.PeakToTrough)
	}

	empty := BandFeatures(wl, wl, Band{100, 200})
	if empty.AUC != 0 || !math.IsNaN(empty.Mean) || !math.IsNaN(empty.STD) {
		t.Errorf("empty band=%+v", empty)
	}
}

func TestExtractorNames(t *testing.T) {
	e, err := NewExtractor(DefaultRatios())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"Ratio 1", "Ratio 2",
		"AUC_1", "AUC_2", "AUC_3",
		"Peak_to_Trough_1", "Peak_to_Trough_2", "Peak_to_Trough_3",
		"STD_1", "STD_2", "STD_3",
		"Mean_Intensity_1", "Mean_Intensity_2", "Mean_Intensity_3",
	}
	if got := e.Names(); !slices.Equal(got, want) {
		t.Fatalf("Names=%v", got)
	}

	e, err = NewExtractor(DefaultRatios(), WithExtraBands(1))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(e.Names()); n != 6 {
		t.Fatalf("len(Names)=%d, want 6", n)
	}

	if _, err := NewExtractor(nil); err == nil {
		t.Fatal("expected error for no ratios")
	}
	if _, err := NewExtractor([]Ratio{{Name: "x", Num: Band{5, 1}, Den: Band{1, 5}}}); err == nil {
		t.Fatal("expected error for reversed band")
	}
}

func TestExtract(t *testing.T) {
	wl := nmGrid()
	e, err := NewExtractor(DefaultRatios())
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.Ones(len(wl))
	v, err := e.Extract(spectra.Spectrum{Wavelengths: wl, Intensity: x})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 14 {
		t.Fatalf("len=%d, want 14", len(v))
	}

	// 31 samples in 460-490, 26 in 515-540, 131 in 550-680.
	if v[0] != 1.19 || v[1] != 5.04 {
		t.Fatalf("ratios=%v,%v", v[0], v[1])
	}
	if !almostEqual(v[2], 30, 1e-9) || !almostEqual(v[3], 25, 1e-9) || !almostEqual(v[4], 130, 1e-9) {
		t.Fatalf("AUC=%v", v[2:5])
	}
	for j := 5; j < 8; j++ {
		if v[j] != 1 {
			t.Fatalf("Peak_to_Trough=%v", v[5:8])
		}
	}

	if _, err := e.Extract(spectra.Spectrum{Wavelengths: wl, Intensity: x[:10]}); !errors.Is(err, spectra.ErrLengthMismatch) {
		t.Fatalf("err=%v, want ErrLengthMismatch", err)
	}
}

func TestExtractQuantize(t *testing.T) {
	wl := nmGrid()
	e, err := NewExtractor(DefaultRatios(), WithQuantize(1000))
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DC(0.0019, len(wl))
	x[100] = math.NaN()
	x[101] = math.Inf(1)

	v, err := e.Extract(spectra.Spectrum{Wavelengths: wl, Intensity: x})
	if err != nil {
		t.Fatal(err)
	}

	// 0.0019 * 1000 truncates to 1; the mean of the 550-680 band stays 1
	// because the non-finite samples sit at 500-501 nm.
	if v[13] != 1 {
		t.Fatalf("Mean_Intensity_3=%v, want 1", v[13])
	}
	if !slices.Equal(quantize([]float64{1.9e-3, -2.7e-3, math.NaN(), math.Inf(-1)}, 1000), []float64{1, -2, 0, 0}) {
		t.Fatal("unexpected quantization")
	}
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func samplesFor(wl []float64, n int) []spectra.Sample {
	out := make([]spectra.Sample, n)
	for i := range out {
		out[i] = spectra.Sample{
			Spectrum: spectra.Spectrum{
				Wavelengths: wl,
				Intensity:   testutil.GaussianPeak(wl, 470+float64(i), 20, 1, 0.5),
			},
			Meta: spectra.Metadata{Label: []string{"Stone", "Tissue"}[i%2], Group: "g"},
		}
	}
	return out
}

func TestExtractAll(t *testing.T) {
	wl := nmGrid()
	samples := samplesFor(wl, 9)

	e, err := NewExtractor(DefaultRatios())
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := ExtractAll(context.Background(), e, samples, 3)
	if err != nil {
		t.Fatal(err)
	}

	if tbl.Len() != 9 || len(tbl.Names) != 14 {
		t.Fatalf("shape %dx%d", tbl.Len(), len(tbl.Names))
	}
	for i, s := range samples {
		want, _ := e.Extract(s.Spectrum)
		if !slices.Equal(tbl.Rows[i], want) {
			t.Fatalf("row %d out of order", i)
		}
		if tbl.Labels[i] != s.Meta.Label || tbl.Groups[i] != "g" {
			t.Fatalf("row %d label %q group %q", i, tbl.Labels[i], tbl.Groups[i])
		}
	}

	sub := tbl.Subset([]int{4, 1})
	if sub.Len() != 2 || sub.Labels[0] != "Stone" || sub.Labels[1] != "Tissue" {
		t.Fatalf("subset labels=%v", sub.Labels)
	}
}

func TestExtractAllCancelled(t *testing.T) {
	e, err := NewExtractor(DefaultRatios())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ExtractAll(ctx, e, samplesFor(nmGrid(), 4), 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestFillMissing(t *testing.T) {
	nan := math.NaN()
	tbl := &Table{
		Names: []string{"a", "b", "c"},
		Rows: [][]float64{
			{1, nan, nan},
			{3, 4, nan},
			{nan, 8, nan},
		},
	}

	means := tbl.ColumnMeans()
	if means[0] != 2 || means[1] != 6 || !math.IsNaN(means[2]) {
		t.Fatalf("means=%v", means)
	}

	if n := tbl.FillMissing(means); n != 5 {
		t.Fatalf("filled=%d, want 5", n)
	}

	want := [][]float64{{1, 6, 0}, {3, 4, 0}, {2, 8, 0}}
	for i := range want {
		if !slices.Equal(tbl.Rows[i], want[i]) {
			t.Fatalf("row %d=%v, want %v", i, tbl.Rows[i], want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Peaks
// ---------------------------------------------------------------------------

func peakIndices(p []Peak) []int {
	out := make([]int, len(p))
	for i := range p {
		out[i] = p[i].Index
	}
	return out
}

func TestFindPeaks(t *testing.T) {
	x := []float64{0, 1, 0, 2, 2, 2, 0, 3, 1}

	tests := []struct {
		name string
		opts PeakOptions
		want []int
	}{
		{"all", PeakOptions{}, []int{1, 4, 7}},
		{"distance 3", PeakOptions{Distance: 3}, []int{1, 4, 7}},
		{"distance 4", PeakOptions{Distance: 4}, []int{1, 7}},
		{"prominence", PeakOptions{Prominence: 1.5}, []int{4, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := peakIndices(FindPeaks(x, tt.opts))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("peaks=%v, want %v", got, tt.want)
			}
		})
	}

	p := FindPeaks(x, PeakOptions{})
	for i, want := range []float64{1, 2, 2} {
		if p[i].Prominence != want {
			t.Errorf("peak %d prominence=%v, want %v", p[i].Index, p[i].Prominence, want)
		}
	}
	if p[2].LeftBase != 6 || p[2].RightBase != 8 {
		t.Errorf("bases=%d,%d", p[2].LeftBase, p[2].RightBase)
	}

	if len(FindPeaks([]float64{1, 2}, PeakOptions{})) != 0 {
		t.Error("two samples have no interior peak")
	}
	if len(FindPeaks([]float64{0, 1, 1}, PeakOptions{})) != 0 {
		t.Error("plateau at the edge is not a peak")
	}
}

func TestTopPeaks(t *testing.T) {
	x := []float64{0, 1, 0, 2, 2, 2, 0, 3, 1}
	wl := interp.Linspace(400, 408, 9)

	got := TopPeaks(x, wl, 2, PeakOptions{})
	if !slices.Equal(got, []float64{404, 407}) {
		t.Fatalf("TopPeaks=%v", got)
	}

	all := PeakPositions([][]float64{x, x}, wl, 1, PeakOptions{})
	if !slices.Equal(all, []float64{404, 404}) {
		t.Fatalf("PeakPositions=%v", all)
	}

	ranges := PeakRanges([]float64{404, 407}, 1)
	if !slices.Equal(ranges, []Band{{403, 405}, {406, 408}}) {
		t.Fatalf("PeakRanges=%v", ranges)
	}
}

func TestRangeMeans(t *testing.T) {
	wl := interp.Linspace(400, 408, 9)
	rows := [][]float64{
		{0, 1, 2, 3, 4, 5, 6, 7, 8},
		{8, 8, 8, 8, 8, 8, 8, 8, 8},
	}

	got, err := RangeMeans(context.Background(), rows, wl, []Band{{400, 402}, {406, 408}, {500, 510}}, 2)
	if err != nil {
		t.Fatal(err)
	}

	if got[0][0] != 1 || got[0][1] != 7 || !math.IsNaN(got[0][2]) {
		t.Fatalf("row 0=%v", got[0])
	}
	if got[1][0] != 8 || got[1][1] != 8 {
		t.Fatalf("row 1=%v", got[1])
	}

	if _, err := RangeMeans(context.Background(), [][]float64{{1}}, wl, nil, 1); err == nil {
		t.Fatal("expected length error")
	}
}
