package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// TRL5 export layout.
const (
	trl5SkipRows    = 4
	trl5MaxReadings = 150
	trl5MaxRows     = 2068
	trl5Channels    = 2048
)

// TRL5 metadata attribute names.
const (
	AttrLightSource     = "Light Source Type"
	AttrFiberType       = "Fiber Type"
	AttrAimingBeam      = "Aiming Beam Status"
	AttrTargetType      = "Target Type"
	AttrTargetNumber    = "Target Number"
	AttrIntegrationTime = "Integration Time Used (mS)"
	AttrSpectrometer    = "Spec Used"
)

// Reading is one TRL5 acquisition column.
type Reading struct {
	Rotation  int
	Position  int
	Intensity []float64
}

// TRL5Info is the typed part of the TRL5 metadata block.
type TRL5Info struct {
	LightSource     string
	FiberType       string
	AimingBeam      string
	TargetType      string
	TargetNumber    string
	IntegrationTime string
	Spectrometer    string
}

// TRL5File is a parsed legacy TRL5 CSV export.
type TRL5File struct {
	Path        string
	Wavelengths []float64
	Readings    []Reading
	Attributes  map[string]string
	Info        TRL5Info
}

// ReadTRL5 reads a legacy TRL5 export. After four preamble rows the file
// holds a rotation row and a position row followed by one row per channel
// (wavelength in column 0, one column per reading). Only the first 2048
// channels are kept. An Attribute,Value block follows the data.
func ReadTRL5(path string) (*TRL5File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open trl5: %w", err)
	}
	defer f.Close()

	t, err := ParseTRL5(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path

	return t, nil
}

// ParseTRL5 parses a TRL5 export from r. See ReadTRL5.
func ParseTRL5(r io.Reader) (*TRL5File, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: parse trl5: %w", err)
		}
		records = append(records, rec)
	}

	if len(records) < trl5SkipRows+3 {
		return nil, fmt.Errorf("%w: trl5 export has %d rows", ErrNoSpectra, len(records))
	}
	records = records[trl5SkipRows:]

	rotRow, posRow := records[0], records[1]

	// Reading columns are those with a numeric rotation.
	var cols []int
	for c := 1; c < len(rotRow) && c <= trl5MaxReadings; c++ {
		if _, err := parseCell(rotRow[c]); err == nil {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no reading columns", ErrNoSpectra)
	}

	t := &TRL5File{Attributes: make(map[string]string)}

	data := records[2:]
	end := 0
	for end < len(data) && end < trl5MaxRows {
		if len(data[end]) == 0 {
			break
		}
		if _, err := parseCell(data[end][0]); err != nil {
			break
		}
		end++
	}
	channels := min(end, trl5Channels)
	if channels < 2 {
		return nil, fmt.Errorf("%w: trl5 export has %d channels", ErrNoSpectra, channels)
	}

	t.Wavelengths = make([]float64, channels)
	for i := range channels {
		t.Wavelengths[i], _ = parseCell(data[i][0])
	}

	for _, c := range cols {
		rot, _ := parseCell(rotRow[c])
		pos, _ := parseCell(cell(posRow, c))

		rd := Reading{
			Rotation:  int(math.Round(rot)),
			Position:  int(pos),
			Intensity: make([]float64, channels),
		}
		for i := range channels {
			v, err := parseCell(cell(data[i], c))
			if err != nil {
				v = math.NaN()
			}
			rd.Intensity[i] = v
		}
		t.Readings = append(t.Readings, rd)
	}

	for _, rec := range data[end:] {
		if len(rec) < 2 {
			continue
		}
		key := strings.TrimSpace(rec[0])
		if key == "" {
			continue
		}
		if _, ok := t.Attributes[key]; !ok {
			t.Attributes[key] = strings.TrimSpace(rec[1])
		}
	}

	t.Info = TRL5Info{
		LightSource:     t.Attributes[AttrLightSource],
		FiberType:       t.Attributes[AttrFiberType],
		AimingBeam:      t.Attributes[AttrAimingBeam],
		TargetType:      t.Attributes[AttrTargetType],
		TargetNumber:    t.Attributes[AttrTargetNumber],
		IntegrationTime: t.Attributes[AttrIntegrationTime],
		Spectrometer:    t.Attributes[AttrSpectrometer],
	}

	return t, nil
}

// Average returns one reading per distinct (rotation, position) pair,
// ordered by rotation then position, holding the NaN-ignoring mean of the
// readings in that group.
func (t *TRL5File) Average() []Reading {
	type key struct{ rot, pos int }

	groups := make(map[key][]Reading)
	for _, rd := range t.Readings {
		k := key{rd.Rotation, rd.Position}
		groups[k] = append(groups[k], rd)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].rot != keys[j].rot {
			return keys[i].rot < keys[j].rot
		}
		return keys[i].pos < keys[j].pos
	})

	out := make([]Reading, 0, len(keys))
	for _, k := range keys {
		out = append(out, Reading{
			Rotation:  k.rot,
			Position:  k.pos,
			Intensity: nanMean(groups[k], len(t.Wavelengths)),
		})
	}

	return out
}

func nanMean(rs []Reading, n int) []float64 {
	out := make([]float64, n)
	for i := range n {
		var (
			sum float64
			cnt int
		)
		for _, rd := range rs {
			if v := rd.Intensity[i]; !math.IsNaN(v) {
				sum += v
				cnt++
			}
		}
		if cnt == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(cnt)
	}
	return out
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func parseCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
