package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

const (
	// darkMetaFields is the number of metadata fields in front of every
	// dark-reference record.
	darkMetaFields = 16

	// darkTimeField is the metadata position of the integration time.
	darkTimeField = 6

	sentinelStart = "FILE_START"
	sentinelEnd   = "FILE_END"
)

// DarkReference is the per-wavelength mean of replicate dark measurements.
type DarkReference struct {
	Path        string
	Wavelengths []float64
	Mean        []float64

	// IntegrationTime is the requested time, "" when all rows were averaged
	// on purpose.
	IntegrationTime string

	// Rows is the number of records averaged into Mean.
	Rows int

	// Matched is false when a time was requested but no record carried it,
	// in which case Mean averages every record.
	Matched bool
}

type darkRecord struct {
	meta   []string
	values []float64
}

// LoadDarkReference averages the dark reference stored in the first .txt
// file of dir. A non-empty integrationTime restricts the average to the
// records whose integration-time field equals it numerically. When no record
// matches, every record is averaged and Matched is false.
func LoadDarkReference(dir, integrationTime string) (DarkReference, error) {
	path, err := firstFile(dir, ".txt")
	if err != nil {
		return DarkReference{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return DarkReference{}, fmt.Errorf("ingest: open dark reference: %w", err)
	}
	defer f.Close()

	ref, err := ParseDarkReference(f, integrationTime)
	if err != nil {
		return DarkReference{}, fmt.Errorf("%s: %w", path, err)
	}
	ref.Path = path

	return ref, nil
}

// ParseDarkReference parses a dark-reference file from r. See
// LoadDarkReference.
//
// Records are either separated by blank lines (a record may then span
// several lines) or written one per line without separators. The first
// numeric record holds the wavelengths.
func ParseDarkReference(r io.Reader, integrationTime string) (DarkReference, error) {
	groups, err := readGroups(r)
	if err != nil {
		return DarkReference{}, err
	}

	var records []darkRecord
	if len(groups) == 1 {
		records = lineRecords(groups[0])
	} else {
		records = groupRecords(groups)
	}

	if len(records) < 2 {
		return DarkReference{}, ErrNoReferenceData
	}

	ref := DarkReference{
		Wavelengths:     records[0].values,
		IntegrationTime: integrationTime,
	}
	rows := records[1:]

	if integrationTime != "" {
		var matching []darkRecord
		for _, rec := range rows {
			if len(rec.meta) > darkTimeField && SameTime(rec.meta[darkTimeField], integrationTime) {
				matching = append(matching, rec)
			}
		}
		if len(matching) > 0 {
			rows = matching
			ref.Matched = true
		}
	} else {
		ref.Matched = true
	}

	mean, n := meanRecords(rows, len(ref.Wavelengths))
	if n == 0 {
		return DarkReference{}, fmt.Errorf("%w: no records with %d values", ErrNoReferenceData, len(ref.Wavelengths))
	}
	ref.Mean = mean
	ref.Rows = n

	return ref, nil
}

// readGroups splits the input into blank-line separated groups of trimmed
// lines, dropping the FILE_START/FILE_END sentinels.
func readGroups(r io.Reader) ([][]string, error) {
	var (
		groups  [][]string
		current []string
	)

	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, sentinelStart) || strings.HasPrefix(upper, sentinelEnd) {
			continue
		}

		if line == "" {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
			continue
		}

		current = append(current, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ingest: scan dark reference: %w", err)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	if len(groups) == 0 {
		return nil, ErrNoReferenceData
	}

	return groups, nil
}

// lineRecords treats every line as a record. Lines with a non-numeric value
// after the metadata are dropped.
func lineRecords(lines []string) []darkRecord {
	var out []darkRecord
	for _, line := range lines {
		items := nonEmpty(splitFields(line))
		if len(items) <= darkMetaFields {
			continue
		}

		vals, ok := parseFloats(items[darkMetaFields:])
		if !ok {
			continue
		}

		out = append(out, darkRecord{meta: items[:darkMetaFields], values: vals})
	}
	return out
}

// groupRecords joins the lines of each group into one record. Non-numeric
// values are skipped, groups without values are dropped.
func groupRecords(groups [][]string) []darkRecord {
	var out []darkRecord
	for _, group := range groups {
		var items []string
		for _, line := range group {
			items = append(items, nonEmpty(splitFields(line))...)
		}
		if len(items) <= darkMetaFields {
			continue
		}

		vals := parseFloatsLenient(items[darkMetaFields:])
		if len(vals) == 0 {
			continue
		}

		out = append(out, darkRecord{meta: items[:darkMetaFields], values: vals})
	}
	return out
}

// meanRecords averages the records of length n and reports how many were
// used.
func meanRecords(rows []darkRecord, n int) ([]float64, int) {
	mean := make([]float64, n)
	used := 0

	for _, rec := range rows {
		if len(rec.values) != n {
			continue
		}
		vecmath.AddBlockInPlace(mean, rec.values)
		used++
	}

	if used == 0 {
		return nil, 0
	}

	vecmath.ScaleBlock(mean, mean, 1/float64(used))

	return mean, used
}

// firstFile returns the first file in dir (lexical order) with the given
// extension.
func firstFile(dir, ext string) (string, error) {
	files, err := ListFiles(dir, ext, false)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoReferenceFile, dir)
	}
	return files[0], nil
}
