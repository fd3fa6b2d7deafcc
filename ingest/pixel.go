package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// PixelSentinel is the header column after which wavelength columns start.
const PixelSentinel = "PixelDataArray"

// Header column names and the positions used when a name is absent.
const (
	ColumnABStatus        = "dropdownAB"
	ColumnLightSource     = "lightSourceType"
	ColumnTarget          = "targetType"
	ColumnIntegrationTime = "IntegrationTime"

	defaultABStatusIdx        = 6
	defaultLightSourceIdx     = 12
	defaultTargetIdx          = 18
	defaultIntegrationTimeIdx = 30
)

// Columns holds the metadata positions of the fields the pipeline reads.
type Columns struct {
	ABStatus        int
	LightSource     int
	Target          int
	IntegrationTime int
}

func (c Columns) maxIndex() int {
	return max(c.ABStatus, c.LightSource, c.Target, c.IntegrationTime)
}

// Row is one reading: the metadata fields up to and including the sentinel
// column, followed by its intensities.
type Row struct {
	Meta      []string
	Intensity []float64
}

// Field returns metadata field i, or "" when the row is too short.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Meta) {
		return ""
	}
	return r.Meta[i]
}

// Export is a parsed pixel export.
type Export struct {
	Path        string
	Header      []string
	Wavelengths []float64
	Columns     Columns
	Rows        []Row
}

// Record is the typed view of one row.
type Record struct {
	ABStatus        string
	LightSource     string
	Target          string
	IntegrationTime string
	Intensity       []float64
}

// Record returns the typed view of row i.
func (e *Export) Record(i int) Record {
	r := e.Rows[i]
	return Record{
		ABStatus:        r.Field(e.Columns.ABStatus),
		LightSource:     r.Field(e.Columns.LightSource),
		Target:          r.Field(e.Columns.Target),
		IntegrationTime: r.Field(e.Columns.IntegrationTime),
		Intensity:       r.Intensity,
	}
}

// Source returns the light source type of the export: the last token of the
// lightSourceType field of the first row, upper-cased with parentheses
// removed ("Broadband (LED)" becomes "LED").
func (e *Export) Source() string {
	if len(e.Rows) == 0 {
		return ""
	}
	return SourceType(e.Rows[0].Field(e.Columns.LightSource))
}

// SourceType normalizes a light source description to its type token.
func SourceType(lightSource string) string {
	tokens := strings.Fields(lightSource)
	if len(tokens) == 0 {
		return ""
	}
	return strings.Trim(strings.ToUpper(tokens[len(tokens)-1]), "()")
}

// ReadPixelExport reads the pixel export at path. A non-empty
// integrationTime keeps only the rows whose IntegrationTime field equals it
// numerically.
func ReadPixelExport(path, integrationTime string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open export: %w", err)
	}
	defer f.Close()

	e, err := ParsePixelExport(f, integrationTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.Path = path

	return e, nil
}

// ParsePixelExport parses a pixel export from r. See ReadPixelExport.
func ParsePixelExport(r io.Reader, integrationTime string) (*Export, error) {
	var (
		e        Export
		pixelIdx = -1
	)

	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		items := splitFields(line)

		if idx := indexOf(items, PixelSentinel); idx >= 0 {
			wl, ok := parseFloats(items[idx+1:])
			if !ok {
				return nil, fmt.Errorf("%w: non-numeric wavelength in header", ErrNoSpectra)
			}
			pixelIdx = idx
			e.Header = items
			e.Wavelengths = wl
			continue
		}

		if pixelIdx < 0 || len(items) <= pixelIdx {
			continue
		}

		vals, ok := parseFloats(items[pixelIdx+1:])
		if !ok || len(vals) == 0 {
			continue
		}

		e.Rows = append(e.Rows, Row{
			Meta:      items[:pixelIdx+1],
			Intensity: vals,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ingest: scan export: %w", err)
	}

	if e.Header == nil || len(e.Wavelengths) == 0 || len(e.Rows) == 0 {
		return nil, ErrNoSpectra
	}

	e.Columns = lookupColumns(e.Header)

	if integrationTime != "" {
		kept := e.Rows[:0]
		for _, row := range e.Rows {
			if SameTime(row.Field(e.Columns.IntegrationTime), integrationTime) {
				kept = append(kept, row)
			}
		}
		e.Rows = kept

		if len(e.Rows) == 0 {
			return nil, fmt.Errorf("%w: no rows with integration time %s", ErrNoSpectra, integrationTime)
		}
	}

	if need := e.Columns.maxIndex(); need >= len(e.Rows[0].Meta) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrMissingColumns, need+1, len(e.Rows[0].Meta))
	}

	return &e, nil
}

func lookupColumns(header []string) Columns {
	find := func(name string, def int) int {
		if i := indexOf(header, name); i >= 0 {
			return i
		}
		return def
	}

	return Columns{
		ABStatus:        find(ColumnABStatus, defaultABStatusIdx),
		LightSource:     find(ColumnLightSource, defaultLightSourceIdx),
		Target:          find(ColumnTarget, defaultTargetIdx),
		IntegrationTime: find(ColumnIntegrationTime, defaultIntegrationTimeIdx),
	}
}
