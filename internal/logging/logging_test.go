package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("file skipped", slog.String("file", "a.txt"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "file skipped") || !strings.Contains(out, "file=a.txt") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestJSONTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Info("dark reference loaded", slog.String("integration_time", "100"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %v: %s", err, buf.String())
	}

	ts, _ := rec["time"].(string)
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`).MatchString(ts) {
		t.Errorf("time = %q", ts)
	}
	if rec["integration_time"] != "100" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["source"]; !ok {
		t.Errorf("source location missing in development mode: %v", rec)
	}
}

func TestSetupProduction(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(Options{Level: "info", Format: "json", Production: true, Output: &buf})
	if slog.Default() != logger {
		t.Fatal("Setup did not install the default logger")
	}

	slog.Info("run created")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec["source"]; ok {
		t.Errorf("production record carries source: %v", rec)
	}
	if ts, _ := rec["time"].(string); !strings.Contains(ts, "T") {
		t.Errorf("production time = %q, want RFC 3339", ts)
	}
}
