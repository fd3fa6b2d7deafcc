// Package pipeline chains the processing, feature and model selection
// stages the way the binaries run them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/cwbudde/algo-spectro/classify"
	"github.com/cwbudde/algo-spectro/config"
	"github.com/cwbudde/algo-spectro/features"
	"github.com/cwbudde/algo-spectro/spectra"
	"github.com/cwbudde/algo-spectro/stats/anova"
)

// QuantizeScale is the intensity scale used when quantization is enabled.
const QuantizeScale = 1000

var (
	// ErrNoSpectra is returned when processing keeps no sample.
	ErrNoSpectra = errors.New("pipeline: no usable spectra")

	// ErrNoModel is returned when no candidate family scores above zero.
	ErrNoModel = errors.New("pipeline: no model selected")
)

// Extract processes cfg.MainFolder in the configured format and returns
// the batch together with its feature table.
func Extract(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*spectra.Batch, *features.Table, error) {
	pc, err := cfg.Processor()
	if err != nil {
		return nil, nil, err
	}
	p, err := spectra.NewProcessor(pc, logger)
	if err != nil {
		return nil, nil, err
	}

	var batch *spectra.Batch
	if cfg.Format == config.FormatTRL5 {
		batch, err = p.ProcessTRL5Directory(ctx, cfg.MainFolder, cfg.TRL5Options())
	} else {
		batch, err = p.ProcessDirectory(ctx, cfg.MainFolder)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(batch.Samples) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoSpectra, cfg.MainFolder)
	}

	opts := []features.Option{features.WithExtraBands(cfg.ExtraBands)}
	if cfg.Quantize {
		opts = append(opts, features.WithQuantize(QuantizeScale))
	}
	e, err := features.NewExtractor(cfg.PowerRatios, opts...)
	if err != nil {
		return nil, nil, err
	}

	table, err := features.ExtractAll(ctx, e, batch.Samples, cfg.Workers)
	if err != nil {
		return nil, nil, err
	}

	return batch, table, nil
}

// TrainResult is the outcome of Train.
type TrainResult struct {
	Results    []classify.SearchResult
	Best       classify.SearchResult
	Evaluation classify.Evaluation

	TrainRows int
	TestRows  int

	// Imputed counts the NaN cells replaced by column means.
	Imputed int

	// ModelPath is where the selected model was saved.
	ModelPath string
}

// Train splits t by acquisition group, fills missing features on both
// sides with the training column means, optionally standardizes and
// oversamples the training side, grid-searches the default candidates and
// saves the selected model with its fill means to cfg.ModelPath(). t is
// modified by the imputation.
func Train(ctx context.Context, cfg *config.Config, t *features.Table, logger *slog.Logger) (TrainResult, error) {
	rng := rand.New(rand.NewPCG(cfg.Train.Seed, cfg.Train.Seed))

	trainIdx, testIdx, err := classify.PartitionByGroup(t.Labels, t.Groups, cfg.Train.Percent, rng)
	if err != nil {
		return TrainResult{}, err
	}

	// Subsets share rows with t, so filling them fills t.
	trainTab, testTab := t.Subset(trainIdx), t.Subset(testIdx)
	means := trainTab.ColumnMeans()
	imputed := trainTab.FillMissing(means) + testTab.FillMissing(means)

	ds, _, err := classify.FromTable(t, nil)
	if err != nil {
		return TrainResult{}, err
	}
	train, test := ds.Subset(trainIdx), ds.Subset(testIdx)

	logger.Info("dataset split",
		slog.Int("train", train.Len()), slog.Int("test", test.Len()),
		slog.Int("imputed", imputed), slog.Any("classes", ds.Classes))

	var scaler *classify.StandardScaler
	if cfg.Train.Scale {
		scaler, err = classify.FitScaler(train.X)
		if err != nil {
			return TrainResult{}, err
		}
		if train.X, err = scaler.Transform(train.X); err != nil {
			return TrainResult{}, err
		}
		if test.X, err = scaler.Transform(test.X); err != nil {
			return TrainResult{}, err
		}
	}

	if cfg.Train.SMOTE {
		before := train.Len()
		train.X, train.Y, err = classify.SMOTE(train.X, train.Y, len(train.Classes), cfg.Train.SMOTEK, rng)
		if err != nil {
			return TrainResult{}, err
		}
		logger.Info("training set oversampled", slog.Int("before", before), slog.Int("after", train.Len()))
	}

	results, err := classify.GridSearch(ctx, classify.DefaultCandidates(cfg.Train.Seed), train, cfg.Train.Folds, cfg.Workers)
	if err != nil {
		return TrainResult{}, err
	}
	for _, r := range results {
		logger.Info("candidate",
			slog.String("family", r.Family), slog.String("params", r.Params.String()),
			slog.Float64("cv", r.CVScore), slog.Float64("train", r.TrainScore))
	}

	best, ok := classify.SelectBest(results)
	if !ok {
		return TrainResult{}, ErrNoModel
	}

	ev, err := classify.Evaluate(best.Model, train, test, best.CVScore)
	if err != nil {
		return TrainResult{}, err
	}

	path := cfg.ModelPath()
	if err := classify.Save(path, best.Model, train, scaler, means); err != nil {
		return TrainResult{}, err
	}
	logger.Info("model saved", slog.String("model", best.Family), slog.String("path", path))

	return TrainResult{
		Results:    results,
		Best:       best,
		Evaluation: ev,
		TrainRows:  train.Len(),
		TestRows:   test.Len(),
		Imputed:    imputed,
		ModelPath:  path,
	}, nil
}

// ROI runs the per-wavelength ANOVA across the batch labels. Significant
// wavelengths closer than 1.5 grid steps merge into one region.
func ROI(b *spectra.Batch, alpha float64) ([]anova.Region, []float64, error) {
	if len(b.Grid) < 2 {
		return nil, nil, fmt.Errorf("%w: grid has %d points", anova.ErrShape, len(b.Grid))
	}
	gap := 1.5 * (b.Grid[1] - b.Grid[0])
	return anova.ROI(b.Matrix(), b.Labels(), b.Grid, alpha, gap)
}

// ClassPeaks returns, per label, the wavelengths of the n most prominent
// peaks of the label's mean spectrum.
func ClassPeaks(b *spectra.Batch, n int, opts features.PeakOptions) map[string][]float64 {
	sums := make(map[string][]float64)
	counts := make(map[string]int)

	for _, s := range b.Samples {
		acc, ok := sums[s.Meta.Label]
		if !ok {
			acc = make([]float64, s.Len())
			sums[s.Meta.Label] = acc
		}
		for i, v := range s.Intensity {
			acc[i] += v
		}
		counts[s.Meta.Label]++
	}

	out := make(map[string][]float64, len(sums))
	for label, acc := range sums {
		for i := range acc {
			acc[i] /= float64(counts[label])
		}
		out[label] = features.TopPeaks(acc, b.Grid, n, opts)
	}

	return out
}

// SortedLabels returns the keys of m in order.
func SortedLabels[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
