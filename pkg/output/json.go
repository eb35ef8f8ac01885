package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/logsift/pkg/analyzer"
)

// JSONFormatter writes reports as indented JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport mirrors the one-line text summary.
type quietReport struct {
	DateRange      DateRange        `json:"date_range"`
	TotalLogs      int              `json:"total_logs"`
	TotalErrors    int              `json:"total_errors"`
	APIPaths       int              `json:"api_paths"`
	ExceptionTypes int              `json:"exception_types"`
	Summary        analyzer.Summary `json:"summary"`
}

// Format writes the full report, or only the totals in quiet mode.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if !f.opts.Quiet {
		return enc.Encode(report)
	}
	return enc.Encode(quietReport{
		DateRange:      report.DateRange,
		TotalLogs:      report.TotalLogs,
		TotalErrors:    report.TotalErrors,
		APIPaths:       len(report.APICalls),
		ExceptionTypes: len(report.Exceptions),
		Summary:        report.Summary,
	})
}
