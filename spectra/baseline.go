package spectra

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-spectro/ingest"
	"github.com/cwbudde/algo-spectro/stats/descriptive"
	"github.com/cwbudde/algo-vecmath"
)

// ReferenceMode selects the baseline removed from every reading.
type ReferenceMode string

const (
	// RefDark subtracts the dark reference averaged for the reading's
	// integration time.
	RefDark ReferenceMode = "darkref"

	// RefMean subtracts the reading's own mean.
	RefMean ReferenceMode = "avg"

	// RefNone leaves the reading as is.
	RefNone ReferenceMode = "none"
)

// ParseReferenceMode parses a case-insensitive reference mode.
func ParseReferenceMode(s string) (ReferenceMode, error) {
	switch m := ReferenceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RefDark, RefMean, RefNone:
		return m, nil
	default:
		return "", fmt.Errorf("spectra: invalid reference mode %q", s)
	}
}

// SubtractBaseline returns x - dark elementwise.
func SubtractBaseline(x, dark []float64) ([]float64, error) {
	if len(x) != len(dark) {
		return nil, fmt.Errorf("%w: reading has %d channels, baseline %d", ErrLengthMismatch, len(x), len(dark))
	}

	out := make([]float64, len(x))
	vecmath.ScaleBlock(out, dark, -1)
	vecmath.AddBlockInPlace(out, x)

	return out, nil
}

// SubtractMean returns x minus its mean.
func SubtractMean(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}

	m := descriptive.Mean(x)
	for i, v := range x {
		out[i] = v - m
	}

	return out
}

// DarkLoader loads the dark reference for one integration time.
type DarkLoader func(integrationTime string) (ingest.DarkReference, error)

// DarkCache memoizes dark references by integration-time string. Entries
// are never replaced once loaded. A DarkCache is not safe for concurrent
// use.
type DarkCache struct {
	load DarkLoader
	refs map[string]ingest.DarkReference
}

// NewDarkCache returns an empty cache backed by load.
func NewDarkCache(load DarkLoader) *DarkCache {
	return &DarkCache{
		load: load,
		refs: make(map[string]ingest.DarkReference),
	}
}

// Get returns the reference for integrationTime, loading it on first use.
// loaded reports whether this call performed the load.
func (c *DarkCache) Get(integrationTime string) (ref ingest.DarkReference, loaded bool, err error) {
	if ref, ok := c.refs[integrationTime]; ok {
		return ref, false, nil
	}

	ref, err = c.load(integrationTime)
	if err != nil {
		return ingest.DarkReference{}, false, err
	}

	c.refs[integrationTime] = ref

	return ref, true, nil
}

// Len returns the number of cached references.
func (c *DarkCache) Len() int { return len(c.refs) }
