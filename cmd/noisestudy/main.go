// Command noisestudy compares smoothing filters on one spectrum.
//
// Usage:
//
//	noisestudy -file spectrum.csv [-dark dark.xlsx] [flags]
//
// The spectrum is a two-column CSV export. When a dark workbook is given,
// its mean dark level is subtracted before filtering. Every filter setting
// of the default sweep is scored against the unfiltered spectrum and the
// table is printed best SNR first.
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
	"text/tabwriter"

	"github.com/mdobak/go-xerrors"

	"github.com/cwbudde/algo-spectro/ingest"
	"github.com/cwbudde/algo-spectro/internal/logging"
	"github.com/cwbudde/algo-spectro/measure/denoise"
	"github.com/cwbudde/algo-spectro/store"
)

type options struct {
	file     string
	dark     string
	skip     int
	rows     int
	top      int
	storeDSN string
	logLevel string
}

func main() {
	var o options
	flag.StringVar(&o.file, "file", "", "spectrum CSV export (required)")
	flag.StringVar(&o.dark, "dark", "", "dark-reference workbook; its first column is averaged")
	flag.IntVar(&o.skip, "skip", 5, "lines before the CSV header")
	flag.IntVar(&o.rows, "rows", 2068, "data rows to read (0 reads all)")
	flag.IntVar(&o.top, "top", 0, "print only the best N settings (0 prints all)")
	flag.StringVar(&o.storeDSN, "store", os.Getenv("TS_STORE_DSN"), "SQLite database to record the trials in")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level")
	flag.Parse()

	logger := logging.Setup(logging.Options{Level: o.logLevel})

	if o.file == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, os.Stdout, logger); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "noise study failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer, logger *slog.Logger) error {
	wl, intensity, err := ingest.ReadSpectrumCSV(o.file, o.skip, o.rows)
	if err != nil {
		return err
	}
	logger.Info("spectrum loaded", slog.String("file", o.file), slog.Int("channels", len(wl)))

	if o.dark != "" {
		level, err := ingest.ReadDarkLevelExcel(o.dark, ingest.DarkColumnRange)
		if err != nil {
			return err
		}
		for i := range intensity {
			intensity[i] -= level
		}
		logger.Info("dark level subtracted", slog.Float64("level", level))
	}

	trials, err := denoise.Study(ctx, wl, intensity, denoise.DefaultGrid(), denoise.Config{})
	if err != nil {
		return err
	}

	failed := 0
	for _, t := range trials {
		if t.Err != nil {
			failed++
			logger.Debug("filter setting failed", slog.String("method", string(t.Method)),
				slog.String("params", t.Params), slog.Any("error", t.Err))
		}
	}
	logger.Info("study finished", slog.Int("trials", len(trials)), slog.Int("failed", failed))

	ranked := denoise.Rank(trials)
	if o.top > 0 && o.top < len(ranked) {
		ranked = ranked[:o.top]
	}
	if err := printTrials(w, ranked); err != nil {
		return err
	}

	if o.storeDSN == "" {
		return nil
	}

	db, err := store.Open(o.storeDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.CreateRun(ctx, store.Run{Kind: "noisestudy", ConfigPath: o.file})
	if err != nil {
		return err
	}
	return db.SaveTrials(ctx, id, trials)
}

func printTrials(w io.Writer, trials []denoise.Trial) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Method\tParams\tMSE\tDistortion\tSNR\tSPNR\tPearson r\tShift\tMisaligned\n")
	fmt.Fprintf(tw, "------\t------\t---\t----------\t---\t----\t---------\t-----\t----------\n")

	for _, t := range trials {
		if t.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\t\t\t\t\t\n", t.Method, t.Params, t.Err)
			continue
		}
		r := t.Result
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			t.Method, t.Params,
			num(r.MSE, "%.3g"), num(r.Distortion, "%.4f"), num(r.SNR, "%.2f"),
			num(r.SPNR, "%.2f"), num(r.PearsonR, "%.5f"), r.PhaseShift, r.Misaligned)
	}

	return tw.Flush()
}

// num formats v, or N/A when it is undefined.
func num(v float64, format string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf(format, v)
}
