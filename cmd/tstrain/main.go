// Command tstrain selects and exports a tissue/stone classifier.
//
// Usage:
//
//	tstrain [flags] [config.yaml]
//
// The exports of main_folder are processed into a feature table, split by
// acquisition file, and every model family of the default grid is
// cross-validated on the training side. The selected model is evaluated on
// the held-out files and written to <models_dir>/<SOURCE>_<AB>.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/mdobak/go-xerrors"

	"github.com/cwbudde/algo-spectro/config"
	"github.com/cwbudde/algo-spectro/features"
	"github.com/cwbudde/algo-spectro/internal/logging"
	"github.com/cwbudde/algo-spectro/internal/pipeline"
	"github.com/cwbudde/algo-spectro/store"
)

type options struct {
	roi   bool
	peaks int
}

func main() {
	var o options
	flag.BoolVar(&o.roi, "roi", false, "print the ANOVA regions of interest")
	flag.IntVar(&o.peaks, "peaks", 0, "print the N most prominent peaks of each class mean")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tstrain [flags] [config.yaml]\n\n")
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

	if err := run(ctx, cfg, o, os.Stdout, logger); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "training failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o options, w io.Writer, logger *slog.Logger) error {
	batch, table, err := pipeline.Extract(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if o.roi {
		regions, sig, err := pipeline.ROI(batch, cfg.Train.Alpha)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d significant wavelengths (alpha %g)\n", len(sig), cfg.Train.Alpha)
		for _, r := range regions {
			fmt.Fprintf(w, "  %.1f - %.1f nm\n", r.Start, r.End)
		}
		fmt.Fprintln(w)
	}

	if o.peaks > 0 {
		peaks := pipeline.ClassPeaks(batch, o.peaks, features.DefaultPeakOptions())
		for _, label := range pipeline.SortedLabels(peaks) {
			fmt.Fprintf(w, "%s peaks: %s\n", label, joinNM(peaks[label]))
		}
		fmt.Fprintln(w)
	}

	// Train imputes in place; the store keeps the raw features.
	var raw *features.Table
	if cfg.StoreDSN != "" {
		raw = &features.Table{Names: table.Names, Rows: cloneRows(table.Rows), Labels: table.Labels, Groups: table.Groups}
	}

	res, err := pipeline.Train(ctx, cfg, table, logger)
	if err != nil {
		return err
	}

	if err := printResults(w, res); err != nil {
		return err
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
		Kind:       "train",
		Source:     cfg.Source,
		Emission:   cfg.Emission,
		ABStatus:   cfg.ABStatus,
		ConfigPath: cfg.Path,
	})
	if err != nil {
		return err
	}
	if err := db.SaveFeatures(ctx, id, raw); err != nil {
		return err
	}

	ev := res.Evaluation
	for _, e := range []store.Evaluation{
		{Dataset: "train", Model: ev.Model, Params: ev.Params.String(), CVError: ev.CVError, Report: ev.Train},
		{Dataset: "test", Model: ev.Model, Params: ev.Params.String(), CVError: ev.CVError, Report: ev.Test},
	} {
		if err := db.SaveEvaluation(ctx, id, e); err != nil {
			return err
		}
	}

	logger.Info("run stored", slog.String("run", id))
	return nil
}

func printResults(w io.Writer, res pipeline.TrainResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Family\tParams\tCV\tTrain\tPenalty\n")
	fmt.Fprintf(tw, "------\t------\t--\t-----\t-------\n")
	for _, r := range res.Results {
		mark := ""
		if r.Family == res.Best.Family {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%.4f\t%.4f\t%.4f\n", r.Family, mark, r.Params, r.CVScore, r.TrainScore, r.Penalty)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ev := res.Evaluation
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\n\tTrain (%d)\tTest (%d)\n", res.TrainRows, res.TestRows)
	row := func(name string, a, b float64) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, num(a), num(b))
	}
	row("Error", ev.TrainError, ev.TestError)
	row("Sensitivity", ev.Train.Sensitivity, ev.Test.Sensitivity)
	row("Specificity", ev.Train.Specificity, ev.Test.Specificity)
	row("Precision", ev.Train.Precision, ev.Test.Precision)
	row("F1", ev.Train.F1, ev.Test.F1)
	row("AUC", ev.Train.AUC, ev.Test.AUC)
	fmt.Fprintf(tw, "CV error\t%s\t\n", num(ev.CVError))
	fmt.Fprintf(tw, "\nSaved\t%s\t\n", res.ModelPath)
	return tw.Flush()
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func joinNM(wl []float64) string {
	parts := make([]string, len(wl))
	for i, v := range wl {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, ", ")
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}
