// Package analyzer turns raw log text into entries and the API call and
// exception statistics derived from them.
package analyzer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// Result is the output of one parse.
type Result struct {
	// Entries are sorted by Date ascending; equal dates keep input order.
	Entries []*parser.LogEntry

	// APIStats holds per-path latency stats in first-closed order.
	APIStats []*APICallStat

	// ExceptionStats holds per-type exception tallies in first-seen order.
	ExceptionStats []*ExceptionStat

	// Summary describes what was parsed.
	Summary Summary
}

// Summary counts what a parse produced.
type Summary struct {
	// Lines is the number of non-blank input lines.
	Lines int `json:"lines"`

	// Dropped is the number of continuation lines seen before the first header.
	Dropped int `json:"dropped"`

	Entries         int `json:"entries"`
	WithThread      int `json:"with_thread"`
	WithoutThread   int `json:"without_thread"`
	WithCorrelation int `json:"with_correlation"`
	Errors          int `json:"errors"`
	Exceptions      int `json:"exceptions"`

	// Duration is how long the parse took.
	Duration time.Duration `json:"duration"`
}

// String renders the summary the way it is shown after a parse, for example
// "Parsed 3 logs (2 with Thread ID, 1 without Thread ID, 1 with Correlation ID)".
func (s Summary) String() string {
	var parts []string
	if s.WithThread > 0 {
		parts = append(parts, fmt.Sprintf("%d with Thread ID", s.WithThread))
	}
	if s.WithoutThread > 0 {
		parts = append(parts, fmt.Sprintf("%d without Thread ID", s.WithoutThread))
	}
	if s.WithCorrelation > 0 {
		parts = append(parts, fmt.Sprintf("%d with Correlation ID", s.WithCorrelation))
	}

	msg := fmt.Sprintf("Parsed %d logs", s.Entries)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

// IsEmpty returns true when no entries were recognized.
func (r *Result) IsEmpty() bool {
	return len(r.Entries) == 0
}

// HasErrors returns true if any entry has the error level or any exception
// was counted.
func (r *Result) HasErrors() bool {
	return r.Summary.Errors > 0 || r.Summary.Exceptions > 0
}

// ParseError reports an unexpected failure while parsing. The result of a
// failed parse is discarded.
type ParseError struct {
	// Line is the 1-based input line being processed, 0 if unknown.
	Line int

	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse failed at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
