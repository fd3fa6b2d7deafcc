// Command filterinfo prints the responses of the spectrum smoothing
// filters.
//
// Usage:
//
//	filterinfo [flags] [design ...]
//
// Without arguments it prints every known design.
//
// Examples:
//
//	filterinfo fir-hamming
//	filterinfo -taps 75 -cutoff 30 fir-hamming fir-blackman
//	filterinfo -rate 1000 -order 6 butterworth
//	filterinfo -list
package main

import (
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-spectro/dsp/filter/biquad"
	"github.com/cwbudde/algo-spectro/dsp/filter/design"
	"github.com/cwbudde/algo-spectro/dsp/filter/fir"
	"github.com/cwbudde/algo-spectro/dsp/response"
	"github.com/cwbudde/algo-spectro/dsp/window"
)

type designEntry struct {
	name   string
	fir    bool
	window window.Type
}

var registry = []designEntry{
	{"fir-hamming", true, window.TypeHamming},
	{"fir-hann", true, window.TypeHann},
	{"fir-blackman", true, window.TypeBlackman},
	{"fir-rectangular", true, window.TypeRectangular},
	{"butterworth", false, 0},
}

type params struct {
	taps   int
	order  int
	cutoff float64
	rate   float64
}

func main() {
	p := params{}
	flag.IntVar(&p.taps, "taps", 101, "FIR length in taps")
	flag.IntVar(&p.order, "order", 4, "Butterworth order")
	flag.Float64Var(&p.cutoff, "cutoff", 10, "cutoff frequency in Hz")
	flag.Float64Var(&p.rate, "rate", 2048, "sample rate in Hz (the number of spectrum channels)")
	list := flag.Bool("list", false, "list available designs")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: filterinfo [flags] [design ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints gain and delay of the spectrum smoothing filters.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints every design.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  filterinfo fir-hamming\n")
		fmt.Fprintf(os.Stderr, "  filterinfo -taps 75 -cutoff 30 fir-hamming fir-blackman\n")
		fmt.Fprintf(os.Stderr, "  filterinfo -list\n")
	}
	flag.Parse()

	if *list {
		printList()
		return
	}

	names := flag.Args()
	if len(names) == 0 {
		for _, e := range registry {
			names = append(names, e.name)
		}
	}

	entries := resolveEntries(names)
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching designs\n")
		os.Exit(1)
	}

	if err := printAnalysis(entries, p); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printList() {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func resolveEntries(names []string) []designEntry {
	byName := make(map[string]designEntry, len(registry))
	for _, e := range registry {
		byName[e.name] = e
	}

	var result []designEntry
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		e, ok := byName[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: unknown design %q (use -list to see available)\n", name)
			continue
		}
		result = append(result, e)
	}
	return result
}

// analysis is the response summary of one design.
type analysis struct {
	size    string
	dcGain  float64
	atFc    float64 // dB at the cutoff
	atTwoFc float64 // dB at twice the cutoff
	corner  float64 // -3 dB point in Hz
	delay   float64 // low-frequency group delay in samples
}

// curvePoints is the number of DC..Nyquist response samples.
const curvePoints = 4097

func analyze(e designEntry, p params) (analysis, error) {
	var (
		h response.Responder
		a analysis
	)

	if e.fir {
		coeffs, err := fir.Lowpass(p.taps, p.cutoff, p.rate, fir.WithWindow(e.window))
		if err != nil {
			return analysis{}, err
		}
		f := fir.New(coeffs)
		h = f
		a = analysis{size: fmt.Sprintf("%d taps", p.taps), dcGain: f.DCGain()}
	} else {
		sections, err := design.ButterworthLP(p.cutoff, p.order, p.rate)
		if err != nil {
			return analysis{}, err
		}
		c := biquad.NewChain(sections)
		h = c
		a = analysis{size: fmt.Sprintf("order %d", p.order), dcGain: cmplx.Abs(c.Response(0, p.rate))}
	}

	curve, err := response.Sample(h, p.rate, curvePoints)
	if err != nil {
		return analysis{}, err
	}
	dcdB := 20 * math.Log10(a.dcGain)

	a.atFc = 20*math.Log10(cmplx.Abs(h.Response(p.cutoff, p.rate))) - dcdB
	a.atTwoFc = 20*math.Log10(cmplx.Abs(h.Response(2*p.cutoff, p.rate))) - dcdB
	a.corner = curve.Cutoff()
	a.delay = curve.GroupDelay[1]

	return a, nil
}

func printAnalysis(entries []designEntry, p params) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Design\tSize\tCutoff [Hz]\tRate [Hz]\tDC Gain\tAt fc [dB]\tAt 2fc [dB]\t-3 dB [Hz]\tDelay [samples]\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "------\t----\t-----------\t---------\t-------\t----------\t-----------\t----------\t---------------\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range entries {
		a, err := analyze(e, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", e.name, err)
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%.6f\t%.2f\t%.2f\t%.2f\t%.1f\n",
			e.name, a.size, p.cutoff, p.rate, a.dcGain, a.atFc, a.atTwoFc, a.corner, a.delay,
		); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return tw.Flush()
}
