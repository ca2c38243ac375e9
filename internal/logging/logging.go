// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Options configures New.
type Options struct {
	Level   slog.Leveler
	NoColor bool
}

// New returns a tint logger writing to stderr. Color is disabled when
// stderr is not a terminal.
func New(opts Options) *slog.Logger {
	noColor := opts.NoColor || !isatty.IsTerminal(os.Stderr.Fd())
	return NewWithWriter(colorable.NewColorable(os.Stderr), opts.Level, noColor)
}

// NewWithWriter returns a tint logger writing to w.
func NewWithWriter(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	if level == nil {
		level = slog.LevelInfo
	}
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if skipZero(a.Value) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// skipZero drops empty attributes to keep lines short. Numeric zeros are
// kept: a record count of 0 is meaningful here.
func skipZero(v slog.Value) bool {
	switch t := v.Any().(type) {
	case string:
		return t == ""
	case time.Time:
		return t.IsZero()
	case nil:
		return true
	}
	return false
}
