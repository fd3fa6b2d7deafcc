package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles returns the files in dir whose extension matches ext
// (case-insensitive, with or without the dot), sorted by path. With
// recursive set, subdirectories are searched as well.
func ListFiles(dir, ext string, recursive bool) ([]string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	match := func(name string) bool {
		return ext == "" || strings.EqualFold(filepath.Ext(name), ext)
	}

	var out []string

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("ingest: read dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && match(e.Name()) {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		return out, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk dir: %w", err)
	}

	sort.Strings(out)

	return out, nil
}

// ReadSpectrumCSV reads a two-column (wavelength, intensity) CSV export.
// The first skip lines are dropped, the next line is the column header, and
// at most maxRows data lines follow (0 means all). Rows where either value
// is not numeric are skipped.
func ReadSpectrumCSV(path string, skip, maxRows int) (wl, intensity []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open csv: %w", err)
	}
	defer f.Close()

	wl, intensity, err = ParseSpectrumCSV(f, skip, maxRows)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return wl, intensity, nil
}

// ParseSpectrumCSV parses a two-column export from r. See ReadSpectrumCSV.
func ParseSpectrumCSV(r io.Reader, skip, maxRows int) (wl, intensity []float64, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	line := 0
	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ingest: parse csv: %w", err)
		}

		line++
		if line <= skip+1 {
			continue
		}
		if maxRows > 0 && rows == maxRows {
			break
		}
		rows++

		if len(rec) < 2 {
			continue
		}
		x, errX := parseCell(rec[0])
		y, errY := parseCell(rec[1])
		if errX != nil || errY != nil {
			continue
		}

		wl = append(wl, x)
		intensity = append(intensity, y)
	}

	if len(wl) == 0 {
		return nil, nil, ErrNoSpectra
	}

	return wl, intensity, nil
}
