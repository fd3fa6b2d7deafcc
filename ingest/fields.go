package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const maxLineBytes = 8 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return sc
}

// splitFields splits a comma-separated line and trims every field.
func splitFields(line string) []string {
	items := strings.Split(line, ",")
	for i, v := range items {
		items[i] = strings.TrimSpace(v)
	}
	return items
}

// nonEmpty drops empty fields.
func nonEmpty(items []string) []string {
	out := items[:0:0]
	for _, v := range items {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseFloats parses every non-empty field. ok is false when any of them is
// not a number.
func parseFloats(items []string) (vals []float64, ok bool) {
	vals = make([]float64, 0, len(items))
	for _, v := range items {
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		vals = append(vals, f)
	}
	return vals, true
}

// parseFloatsLenient parses the numeric fields and ignores the rest.
func parseFloatsLenient(items []string) []float64 {
	vals := make([]float64, 0, len(items))
	for _, v := range items {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			vals = append(vals, f)
		}
	}
	return vals
}

// SameTime reports whether two integration-time strings denote the same
// number ("1", "1.0" and " 1 " all match).
func SameTime(a, b string) bool {
	fa, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return false
	}
	fb, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return false
	}
	return fa == fb
}

func indexOf(items []string, name string) int {
	for i, v := range items {
		if v == name {
			return i
		}
	}
	return -1
}
