package analyzer

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ccollicutt/logsift/pkg/parser"
)

var pathPattern = regexp.MustCompile(`Path:\s+"([^"]+)"`)

// PendingCall is a request line still waiting for its response.
type PendingCall struct {
	Path          string
	Start         time.Time
	CorrelationID string
	RequestID     string
	Anonymous     bool

	// errors counts exceptions attributed to the call while it is open.
	errors int
}

// APICallStat aggregates request/response latency for one path.
// Times are in milliseconds.
type APICallStat struct {
	Path      string `json:"path"`
	Count     int    `json:"count"`
	TotalTime int64  `json:"total_time_ms"`
	MinTime   int64  `json:"min_time_ms"`
	MaxTime   int64  `json:"max_time_ms"`
	Errors    int    `json:"errors"`

	// correlations holds the correlation ids of the calls closed into this
	// stat; it is what exception attribution matches against.
	correlations map[string]bool
}

func newAPICallStat(path string) *APICallStat {
	return &APICallStat{
		Path:         path,
		MinTime:      math.MaxInt64,
		correlations: make(map[string]bool),
	}
}

// AverageTime returns TotalTime/Count, or 0 for a stat without calls.
func (s *APICallStat) AverageTime() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalTime) / float64(s.Count)
}

// ErrorRate returns the percentage of calls with an attributed exception.
func (s *APICallStat) ErrorRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Count) * 100
}

// HasCorrelation reports whether a call with the given correlation id was
// closed into this stat.
func (s *APICallStat) HasCorrelation(id string) bool {
	return s.correlations[id]
}

// APICallTracker matches request path lines to later response lines.
//
// It holds a single pending slot: a second request line replaces the pending
// call before any response closes it, so overlapping requests lose the
// earlier one.
type APICallTracker struct {
	pending *PendingCall
	stats   []*APICallStat
	byPath  map[string]*APICallStat
}

// NewAPICallTracker creates an empty tracker.
func NewAPICallTracker() *APICallTracker {
	return &APICallTracker{byPath: make(map[string]*APICallStat)}
}

// Name returns the tracker name for logging.
func (t *APICallTracker) Name() string {
	return "api_calls"
}

// ObserveHeader opens or closes the pending call.
func (t *APICallTracker) ObserveHeader(entry *parser.LogEntry) {
	if m := pathPattern.FindStringSubmatch(entry.Message); m != nil && (entry.RequestID != "" || entry.Anonymous()) {
		t.pending = &PendingCall{
			Path:          m[1],
			Start:         entry.Date,
			CorrelationID: entry.CorrelationID,
			RequestID:     entry.RequestID,
			Anonymous:     entry.Anonymous(),
		}
		return
	}

	if strings.Contains(entry.Message, "Response") && t.pending != nil && t.matches(entry) {
		t.close(entry.Date)
	}
}

// ObserveContinuation is a no-op; exceptions reach the tracker through
// RecordError.
func (t *APICallTracker) ObserveContinuation(*parser.LogEntry, string) {}

func (t *APICallTracker) matches(entry *parser.LogEntry) bool {
	if t.pending.CorrelationID == entry.CorrelationID {
		return true
	}
	return t.pending.Anonymous && entry.Anonymous()
}

// close folds the pending call into its path stat. The duration may be
// negative when clocks are out of order; it is not clamped.
func (t *APICallTracker) close(end time.Time) {
	call := t.pending
	t.pending = nil

	stat, ok := t.byPath[call.Path]
	if !ok {
		stat = newAPICallStat(call.Path)
		t.byPath[call.Path] = stat
		t.stats = append(t.stats, stat)
	}

	duration := end.Sub(call.Start).Milliseconds()
	stat.Count++
	stat.TotalTime += duration
	stat.MinTime = min(stat.MinTime, duration)
	stat.MaxTime = max(stat.MaxTime, duration)
	stat.Errors += call.errors
	if call.CorrelationID != "" {
		stat.correlations[call.CorrelationID] = true
	}
}

// RecordError attributes an exception raised by entry to an API call with
// the same correlation id: the pending call if it matches, otherwise the
// first stat that closed a call with that id. Entries without a correlation
// id are never attributed.
func (t *APICallTracker) RecordError(entry *parser.LogEntry) {
	id := entry.CorrelationID
	if id == "" {
		return
	}

	if t.pending != nil && t.pending.CorrelationID == id {
		t.pending.errors++
		return
	}

	for _, stat := range t.stats {
		if stat.correlations[id] {
			stat.Errors++
			return
		}
	}
}

// Pending returns the call still awaiting a response, if any.
func (t *APICallTracker) Pending() *PendingCall {
	return t.pending
}

// Stats returns the per-path stats in the order paths were first closed.
func (t *APICallTracker) Stats() []*APICallStat {
	return t.stats
}
