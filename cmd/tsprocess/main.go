// Command tsprocess runs the acquisition pipeline over a directory of
// exports and scores the exported model for the configured source.
//
// Usage:
//
//	tsprocess [flags] [config.yaml]
//
// The configuration is located as described in package config. Spectra are
// preprocessed, turned into a feature table and scored with
// <models_dir>/<SOURCE>_<AB>.json when that file exists. With store_dsn set
// the features and the evaluation are recorded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/mdobak/go-xerrors"

	"github.com/cwbudde/algo-spectro/classify"
	"github.com/cwbudde/algo-spectro/config"
	"github.com/cwbudde/algo-spectro/internal/logging"
	"github.com/cwbudde/algo-spectro/internal/pipeline"
	"github.com/cwbudde/algo-spectro/store"
)

func main() {
	model := flag.String("model", "", "model file (default <models_dir>/<SOURCE>_<AB>.json)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tsprocess [flags] [config.yaml]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Production: cfg.Log.Production,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *model, os.Stdout, logger); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "processing failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, modelPath string, w io.Writer, logger *slog.Logger) error {
	batch, table, err := pipeline.Extract(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := printCounts(w, batch.LabelCounts()); err != nil {
		return err
	}

	if modelPath == "" {
		modelPath = cfg.ModelPath()
	}

	var report *classify.Report
	switch _, err := os.Stat(modelPath); {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("no exported model, skipping evaluation", slog.String("model", modelPath))
	case err != nil:
		return err
	default:
		r, err := classify.ScoreExported(modelPath, table)
		if err != nil {
			return fmt.Errorf("score %s: %w", modelPath, err)
		}
		report = &r
		if err := printReport(w, modelPath, r); err != nil {
			return err
		}
	}

	if cfg.StoreDSN == "" {
		return nil
	}

	db, err := store.Open(cfg.StoreDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.CreateRun(ctx, store.Run{
		Kind:       "process",
		Source:     cfg.Source,
		Emission:   cfg.Emission,
		ABStatus:   cfg.ABStatus,
		ConfigPath: cfg.Path,
	})
	if err != nil {
		return err
	}
	if err := db.SaveFeatures(ctx, id, table); err != nil {
		return err
	}
	if report != nil {
		err := db.SaveEvaluation(ctx, id, store.Evaluation{
			Dataset: "exported",
			Model:   modelPath,
			CVError: math.NaN(),
			Report:  *report,
		})
		if err != nil {
			return err
		}
	}

	logger.Info("run stored", slog.String("run", id), slog.Int("rows", table.Len()))
	return nil
}

func printCounts(w io.Writer, counts map[string]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Label\tSamples\n")
	fmt.Fprintf(tw, "-----\t-------\n")
	for _, l := range pipeline.SortedLabels(counts) {
		fmt.Fprintf(tw, "%s\t%d\n", l, counts[l])
	}
	return tw.Flush()
}

func printReport(w io.Writer, model string, r classify.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nModel\t%s\n", model)
	fmt.Fprintf(tw, "Samples\t%d\n", r.N)
	fmt.Fprintf(tw, "Accuracy\t%s\n", num(r.Accuracy))
	fmt.Fprintf(tw, "Error\t%s\n", num(r.Error))
	fmt.Fprintf(tw, "Sensitivity\t%s\n", num(r.Sensitivity))
	fmt.Fprintf(tw, "Specificity\t%s\n", num(r.Specificity))
	fmt.Fprintf(tw, "Precision\t%s\n", num(r.Precision))
	fmt.Fprintf(tw, "Recall\t%s\n", num(r.Recall))
	fmt.Fprintf(tw, "F1\t%s\n", num(r.F1))
	fmt.Fprintf(tw, "AUC\t%s\n", num(r.AUC))
	return tw.Flush()
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}
