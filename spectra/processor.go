package spectra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-spectro/ingest"
)

// Config configures a Processor.
type Config struct {
	// Source is the light source type to keep (LED, XENON). Files from
	// another source are skipped. Empty keeps every source.
	Source string

	// Emission selects the quality threshold column (EMISSION,
	// NONEMISSION).
	Emission string

	// IntegrationTime keeps only readings taken with this time. Empty keeps
	// all.
	IntegrationTime string

	Reference ReferenceMode

	// DarkDir holds the dark-reference .txt file for RefDark.
	DarkDir string

	Smoother Smoother
	Grid     Grid
	Norm     NormRef
	Quality  QualityFilter
	Labeler  Labeler

	// SkipQuality disables the quality filter.
	SkipQuality bool
}

// DefaultConfig returns the acquisition defaults for source and emission.
func DefaultConfig(source, emission string) Config {
	return Config{
		Source:    strings.ToUpper(source),
		Emission:  strings.ToUpper(emission),
		Reference: RefDark,
		Smoother:  DefaultSmoother(),
		Grid:      DefaultGrid,
		Norm:      DefaultNormRef(),
		Quality:   DefaultQualityFilter(),
		Labeler:   DefaultLabeler(SchemeStone),
	}
}

// Batch is the outcome of processing a directory.
type Batch struct {
	Samples []Sample
	Grid    []float64

	// Kept and Skipped count readings that passed or failed the quality
	// filter; Unlabeled counts readings with an UNKNOWN target.
	Kept      int
	Skipped   int
	Unlabeled int

	// Files counts files read without error, Mismatched those among them
	// skipped for a different light source.
	Files      int
	Mismatched int

	// FailedFiles lists files that could not be read or processed.
	FailedFiles []string
}

// Labels returns the label of every sample in order.
func (b *Batch) Labels() []string {
	out := make([]string, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s.Meta.Label
	}
	return out
}

// LabelCounts returns the number of samples per label.
func (b *Batch) LabelCounts() map[string]int {
	out := make(map[string]int)
	for _, s := range b.Samples {
		out[s.Meta.Label]++
	}
	return out
}

// Matrix returns the intensities as rows.
func (b *Batch) Matrix() [][]float64 {
	out := make([][]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s.Intensity
	}
	return out
}

// Processor runs the preprocessing stages over exports.
type Processor struct {
	cfg    Config
	grid   []float64
	dark   *DarkCache
	logger *slog.Logger
}

// NewProcessor validates cfg and returns a Processor. A nil logger uses
// slog.Default(). An out-of-grid normalization reference is reported here
// as ErrReferenceOutOfRange, before any file is read.
func NewProcessor(cfg Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Reference == "" {
		cfg.Reference = RefDark
	}
	if _, err := ParseReferenceMode(string(cfg.Reference)); err != nil {
		return nil, err
	}
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Smoother.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Labeler.Validate(); err != nil {
		return nil, err
	}

	grid := cfg.Grid.Values()
	if err := cfg.Norm.Check(grid); err != nil {
		return nil, err
	}

	cfg.Source = strings.ToUpper(cfg.Source)
	cfg.Emission = strings.ToUpper(cfg.Emission)

	p := &Processor{
		cfg:    cfg,
		grid:   grid,
		logger: logger,
	}
	p.dark = NewDarkCache(func(it string) (ingest.DarkReference, error) {
		return ingest.LoadDarkReference(cfg.DarkDir, it)
	})

	return p, nil
}

// Grid returns the output wavelength grid.
func (p *Processor) Grid() []float64 { return p.grid }

// Prepare runs baseline subtraction, smoothing, resampling and
// normalization on one reading. baseline is ignored unless the reference
// mode is RefDark.
func (p *Processor) Prepare(wavelengths, x, baseline []float64) (Spectrum, error) {
	var (
		sub []float64
		err error
	)

	switch p.cfg.Reference {
	case RefDark:
		sub, err = SubtractBaseline(x, baseline)
		if err != nil {
			return Spectrum{}, err
		}
	case RefMean:
		sub = SubtractMean(x)
	default:
		sub = append([]float64(nil), x...)
	}

	filtered, err := p.cfg.Smoother.Apply(sub)
	if err != nil {
		return Spectrum{}, fmt.Errorf("spectra: smooth: %w", err)
	}

	resampled, err := Resample(wavelengths, filtered, p.grid)
	if err != nil {
		return Spectrum{}, err
	}

	normalized, _, err := Normalize(resampled, p.cfg.Norm)
	if err != nil {
		return Spectrum{}, err
	}

	return normalized, nil
}

// accept applies the quality filter unless disabled.
func (p *Processor) accept(s Spectrum, source string) bool {
	if p.cfg.SkipQuality {
		return true
	}
	return p.cfg.Quality.Accept(s, source, p.cfg.Emission)
}

// ProcessDirectory processes every .txt pixel export in dir. A file that
// cannot be read or processed is logged, listed in FailedFiles and skipped.
// A dark reference that cannot be loaded ends the run with an error
// wrapping ErrDarkReference. The context is checked between files.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*Batch, error) {
	files, err := ingest.ListFiles(dir, ".txt", false)
	if err != nil {
		return nil, err
	}

	b := &Batch{Grid: p.grid}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return b, err
		}

		if err := p.ProcessFile(path, b); err != nil {
			if errors.Is(err, ErrDarkReference) {
				return b, err
			}
			p.logger.Warn("skipping file", "file", filepath.Base(path), "error", err)
			b.FailedFiles = append(b.FailedFiles, path)
			continue
		}
		b.Files++
	}

	p.logSummary(b)

	return b, nil
}

// ProcessFile processes one pixel export and appends its accepted samples
// to b. On error nothing from the file is appended.
func (p *Processor) ProcessFile(path string, b *Batch) error {
	export, err := ingest.ReadPixelExport(path, p.cfg.IntegrationTime)
	if err != nil {
		return err
	}

	source := export.Source()
	if p.cfg.Source != "" && source != p.cfg.Source {
		p.logger.Info("source mismatch", "file", filepath.Base(path), "source", source, "want", p.cfg.Source)
		b.Mismatched++
		return nil
	}

	var (
		samples              []Sample
		kept, skipped, unlab int
	)

	for i := range export.Rows {
		rec := export.Record(i)

		label, ok := p.cfg.Labeler.Label(rec.Target)
		if !ok {
			unlab++
			continue
		}

		var baseline []float64
		if p.cfg.Reference == RefDark {
			baseline, err = p.darkFor(rec.IntegrationTime, export.Wavelengths)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrDarkReference, err)
			}
		}

		s, err := p.Prepare(export.Wavelengths, rec.Intensity, baseline)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}

		if !p.accept(s, source) {
			skipped++
			continue
		}

		kept++
		samples = append(samples, Sample{
			Spectrum: s,
			Meta: Metadata{
				Target:          rec.Target,
				Label:           label,
				IntegrationTime: rec.IntegrationTime,
				Source:          source,
				Emission:        p.cfg.Emission,
				ABStatus:        rec.ABStatus,
				File:            path,
				Group:           filepath.Base(path),
			},
		})
	}

	b.Samples = append(b.Samples, samples...)
	b.Kept += kept
	b.Skipped += skipped
	b.Unlabeled += unlab

	return nil
}

// darkFor returns the cached dark mean for an integration time, loading
// and checking it against the export's wavelengths on first use.
func (p *Processor) darkFor(integrationTime string, wavelengths []float64) ([]float64, error) {
	ref, loaded, err := p.dark.Get(integrationTime)
	if err != nil {
		return nil, err
	}

	if loaded {
		p.logger.Info("dark reference loaded",
			"integration_time", integrationTime,
			"file", filepath.Base(ref.Path),
			"rows", ref.Rows)

		if !ref.Matched {
			p.logger.Warn("no dark reference rows for integration time, averaging all rows",
				"integration_time", integrationTime)
		}
		if len(ref.Wavelengths) > 0 && len(wavelengths) > 0 &&
			math.Abs(ref.Wavelengths[0]-wavelengths[0]) > 1e-2 {
			p.logger.Warn("wavelength start mismatch",
				"dark", ref.Wavelengths[0], "export", wavelengths[0])
		}
		if len(ref.Wavelengths) != len(wavelengths) {
			p.logger.Warn("wavelength count mismatch",
				"dark", len(ref.Wavelengths), "export", len(wavelengths))
		}
	}

	return ref.Mean, nil
}

func (p *Processor) logSummary(b *Batch) {
	p.logger.Info("filter summary",
		"kept", b.Kept,
		"skipped", b.Skipped,
		"total", b.Kept+b.Skipped,
		"unlabeled", b.Unlabeled,
		"files", b.Files,
		"mismatched", b.Mismatched,
		"failed", len(b.FailedFiles))
}
