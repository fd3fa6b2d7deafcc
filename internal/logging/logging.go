// Package logging configures the slog logger used by the binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json

	// Production drops source locations and the local time rewrite.
	Production bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: invalid level %q", s)
	}
	return l, nil
}

// New returns a logger writing to w. Unknown levels fall back to info and
// unknown formats to text.
func New(w io.Writer, level, format string) *slog.Logger {
	return build(Options{Level: level, Format: format, Output: w})
}

// Setup builds the logger for opts and installs it as slog.Default.
func Setup(opts Options) *slog.Logger {
	logger := build(opts)
	slog.SetDefault(logger)
	return logger
}

func build(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}

	level, _ := ParseLevel(opts.Level)
	ho := &slog.HandlerOptions{Level: level}
	if !opts.Production {
		ho.AddSource = level <= slog.LevelDebug
		ho.ReplaceAttr = replaceTimeAttr
	}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		if !opts.Production {
			ho.AddSource = true
		}
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}

	return slog.New(h)
}

func replaceTimeAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String("time", a.Value.Time().Local().Format("2006-01-02 15:04:05"))
	}
	return a
}
