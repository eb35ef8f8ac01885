// Package parser turns raw multi-line log text into structured log entries.
package parser

import "time"

// Level is the normalized severity of a log entry.
type Level string

const (
	LevelDebug       Level = "debug"
	LevelInformation Level = "information"
	LevelWarning     Level = "warning"
	LevelError       Level = "error"
)

// Levels lists every level in severity order.
var Levels = []Level{LevelDebug, LevelInformation, LevelWarning, LevelError}

// Abbreviation returns the three letter header code for the level.
func (l Level) Abbreviation() string {
	switch l {
	case LevelDebug:
		return "DBG"
	case LevelWarning:
		return "WRN"
	case LevelError:
		return "ERR"
	default:
		return "INF"
	}
}

// Format identifies which header shape produced an entry.
type Format string

const (
	// FormatThread is "[LVL] [ThreadId] message".
	FormatThread Format = "format1"

	// FormatNoThread is "[LVL] message".
	FormatNoThread Format = "format2"
)

// NoThread is the thread id recorded for headers without one.
const NoThread = "N/A"

// CorrelationKind records which correlation encoding a header carried.
type CorrelationKind string

const (
	CorrelationNone      CorrelationKind = "none"
	CorrelationAPIGW     CorrelationKind = "apigw"
	CorrelationAnonymous CorrelationKind = "anonymous"
	CorrelationGUID      CorrelationKind = "guid"
)

// LogEntry is one header line plus its continuation lines.
type LogEntry struct {
	// Timestamp is the original header timestamp text.
	Timestamp string `json:"timestamp"`

	// Date is the date and time portion of Timestamp. The textual UTC offset
	// is not applied.
	Date time.Time `json:"date"`

	Level    Level  `json:"level"`
	ThreadID string `json:"thread_id"`

	// Message is the header payload with any correlation prefix removed.
	Message string `json:"message"`

	// ExceptionText holds the continuation lines, each terminated by "\n".
	ExceptionText string `json:"exception,omitempty"`

	Format Format `json:"format"`

	CorrelationID string          `json:"correlation_id,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	Correlation   CorrelationKind `json:"correlation"`
}

// Anonymous reports whether the header carried the empty [""] placeholder.
func (e *LogEntry) Anonymous() bool {
	return e.Correlation == CorrelationAnonymous
}

// ThreadKey is the grouping key used by distributions: the correlation id
// when there is one, otherwise the thread id.
func (e *LogEntry) ThreadKey() string {
	if e.CorrelationID != "" {
		return e.CorrelationID
	}
	return e.ThreadID
}

// FileText is the content of one input file.
type FileText struct {
	// Path is the file path the text was read from.
	Path string

	// Text is the raw file content.
	Text string
}
