package tables

import (
	"log/slog"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
)

// Reporter receives non-fatal lookup diagnostics. Report must not block.
type Reporter interface {
	Report(msg string)
}

// ErrorReporter is an optional extension of Reporter. When a reporter
// implements it, ReportError is called instead of Report with the structured
// lookup error.
type ErrorReporter interface {
	ReportError(err *apperrors.SheetError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string)

// Report calls f.
func (f ReporterFunc) Report(msg string) {
	f(msg)
}

// SlogReporter writes diagnostics to a slog logger at WARN.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter returns a reporter logging to logger, or to slog.Default
// when logger is nil.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

// Report logs msg.
func (r *SlogReporter) Report(msg string) {
	r.Logger.Warn(msg)
}

// ReportError logs err with its code and details as attributes.
func (r *SlogReporter) ReportError(err *apperrors.SheetError) {
	attrs := make([]any, 0, 2+2*len(err.Details))
	attrs = append(attrs, "code", err.Code)
	for k, v := range err.Details {
		attrs = append(attrs, k, v)
	}
	r.Logger.Warn(err.Message, attrs...)
}

type discardReporter struct{}

func (discardReporter) Report(string) {}
