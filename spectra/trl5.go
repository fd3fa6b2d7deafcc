package spectra

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cwbudde/algo-spectro/ingest"
)

// TRL5Options selects the legacy TRL5 readings to process.
type TRL5Options struct {
	// DarkWorkbook is the Excel dark reference; DarkRange defaults to
	// ingest.DarkSheetRange.
	DarkWorkbook string
	DarkRange    ingest.CellRange

	Recursive bool

	// Positions in [MinPosition, MaxPosition) are kept. Both zero keeps
	// every position.
	MinPosition int
	MaxPosition int
}

// ProcessTRL5Directory processes every .csv TRL5 export in dir. Readings
// are averaged per (rotation, position) before the usual stages run; the
// workbook dark mean replaces the per-time dark cache.
func (p *Processor) ProcessTRL5Directory(ctx context.Context, dir string, opts TRL5Options) (*Batch, error) {
	rng := opts.DarkRange
	if rng == (ingest.CellRange{}) {
		rng = ingest.DarkSheetRange
	}

	var dark []float64
	if p.cfg.Reference == RefDark {
		var err error
		dark, err = ingest.ReadDarkReferenceExcel(opts.DarkWorkbook, rng)
		if err != nil {
			return nil, err
		}
		p.logger.Info("dark reference loaded", "file", filepath.Base(opts.DarkWorkbook), "channels", len(dark))
	}

	files, err := ingest.ListFiles(dir, ".csv", opts.Recursive)
	if err != nil {
		return nil, err
	}

	b := &Batch{Grid: p.grid}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return b, err
		}

		if err := p.processTRL5File(path, dark, opts, b); err != nil {
			p.logger.Warn("unable to read file", "file", filepath.Base(path), "error", err)
			b.FailedFiles = append(b.FailedFiles, path)
			continue
		}
		b.Files++
	}

	p.logSummary(b)

	return b, nil
}

func (p *Processor) processTRL5File(path string, dark []float64, opts TRL5Options, b *Batch) error {
	f, err := ingest.ReadTRL5(path)
	if err != nil {
		return err
	}

	info := f.Info
	source := ingest.SourceType(info.LightSource)
	if p.cfg.Source != "" && source != p.cfg.Source {
		p.logger.Info("source mismatch", "file", filepath.Base(path), "source", source, "want", p.cfg.Source)
		b.Mismatched++
		return nil
	}
	if p.cfg.IntegrationTime != "" && !ingest.SameTime(info.IntegrationTime, p.cfg.IntegrationTime) {
		return nil
	}

	label, ok := p.cfg.Labeler.Label(info.TargetType)
	if !ok {
		b.Unlabeled += len(f.Readings)
		return nil
	}

	var baseline []float64
	if dark != nil {
		n := len(f.Wavelengths)
		if len(dark) < n {
			return fmt.Errorf("%w: dark reference has %d channels, export %d", ErrLengthMismatch, len(dark), n)
		}
		baseline = dark[:n]
	}

	var (
		samples       []Sample
		kept, skipped int
	)

	for _, rd := range f.Average() {
		if opts.MinPosition != 0 || opts.MaxPosition != 0 {
			if rd.Position < opts.MinPosition || rd.Position >= opts.MaxPosition {
				continue
			}
		}

		s, err := p.Prepare(f.Wavelengths, rd.Intensity, baseline)
		if err != nil {
			return fmt.Errorf("rotation %d position %d: %w", rd.Rotation, rd.Position, err)
		}

		if !p.accept(s, source) {
			skipped++
			continue
		}

		kept++
		samples = append(samples, Sample{
			Spectrum: s,
			Meta: Metadata{
				Target:          info.TargetType,
				Label:           label,
				IntegrationTime: info.IntegrationTime,
				Source:          source,
				Emission:        p.cfg.Emission,
				ABStatus:        info.AimingBeam,
				File:            path,
				Group:           info.TargetType + info.TargetNumber,
				Rotation:        rd.Rotation,
				Position:        rd.Position,
			},
		})
	}

	b.Samples = append(b.Samples, samples...)
	b.Kept += kept
	b.Skipped += skipped

	return nil
}
