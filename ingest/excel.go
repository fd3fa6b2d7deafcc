package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange addresses a rectangular block of the first worksheet. Columns
// are letters, rows are 1-based and inclusive.
type CellRange struct {
	FirstCol string
	LastCol  string
	FirstRow int
	LastRow  int
}

var (
	// DarkSheetRange is where replicate dark measurements are stored in a
	// TRL5 dark-reference workbook: 100 replicates (B..CW) of 2068 channels.
	DarkSheetRange = CellRange{FirstCol: "B", LastCol: "CW", FirstRow: 7, LastRow: 2074}

	// DarkColumnRange is the single dark column used by the filter study.
	DarkColumnRange = CellRange{FirstCol: "B", LastCol: "B", FirstRow: 7, LastRow: 107}
)

func (r CellRange) String() string {
	return fmt.Sprintf("%s%d:%s%d", r.FirstCol, r.FirstRow, r.LastCol, r.LastRow)
}

func (r CellRange) columns() (first, last int, err error) {
	first, err = excelize.ColumnNameToNumber(r.FirstCol)
	if err != nil {
		return 0, 0, fmt.Errorf("%w %s: %v", ErrBadRange, r, err)
	}
	last, err = excelize.ColumnNameToNumber(r.LastCol)
	if err != nil {
		return 0, 0, fmt.Errorf("%w %s: %v", ErrBadRange, r, err)
	}
	if last < first || r.FirstRow < 1 || r.LastRow < r.FirstRow {
		return 0, 0, fmt.Errorf("%w %s", ErrBadRange, r)
	}
	return first, last, nil
}

// ReadDarkReferenceExcel returns, for every row of rng in the first
// worksheet, the mean of its numeric cells. Reading stops at the last row
// present in the sheet. Rows without a numeric cell yield NaN.
func ReadDarkReferenceExcel(path string, rng CellRange) ([]float64, error) {
	first, last, err := rng.columns()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
	}

	lastRow := min(rng.LastRow, len(rows))
	if lastRow < rng.FirstRow {
		return nil, fmt.Errorf("%w: %s: sheet %q has %d rows", ErrNoReferenceData, rng, sheet, len(rows))
	}

	means := make([]float64, 0, lastRow-rng.FirstRow+1)
	for r := rng.FirstRow; r <= lastRow; r++ {
		means = append(means, rowMean(rows[r-1], first, last))
	}

	return means, nil
}

// ReadDarkLevelExcel returns the mean of the row means of rng. For a single
// column this is the scalar dark level subtracted by the filter study.
func ReadDarkLevelExcel(path string, rng CellRange) (float64, error) {
	means, err := ReadDarkReferenceExcel(path, rng)
	if err != nil {
		return 0, err
	}

	var (
		sum float64
		n   int
	)
	for _, m := range means {
		if !math.IsNaN(m) {
			sum += m
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s has no numeric cells", ErrNoReferenceData, rng)
	}

	return sum / float64(n), nil
}

// rowMean averages the numeric cells between columns first and last
// (1-based, inclusive).
func rowMean(row []string, first, last int) float64 {
	var (
		sum float64
		n   int
	)
	for c := first; c <= last && c <= len(row); c++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[c-1]), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
