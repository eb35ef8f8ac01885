// Package output builds reports from parse results and renders them as text,
// JSON and plain-text exports.
package output

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ccollicutt/logsift/pkg/analyzer"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// ErrNoData is returned when there are no entries to report on.
var ErrNoData = errors.New("no data")

// DefaultTopThreads is how many threads the thread distribution keeps.
const DefaultTopThreads = 10

// DisplayDateLayout renders dates as "Mon, Jan 2, 2006 at 15:04:05.000".
const DisplayDateLayout = "Mon, Jan 2, 2006 at 15:04:05.000"

// FormatDate renders t with DisplayDateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// ReportOptions controls report generation.
type ReportOptions struct {
	// TopThreads limits the thread distribution. Zero means
	// DefaultTopThreads; a negative value keeps every thread.
	TopThreads int
}

// Report is the full distribution and statistics summary of a parse.
type Report struct {
	DateRange   DateRange `json:"date_range"`
	TotalLogs   int       `json:"total_logs"`
	TotalErrors int       `json:"total_errors"`

	Levels []LevelRow `json:"levels"`

	// Threads holds the most active threads; ThreadCount is the number of
	// distinct threads before truncation.
	Threads     []ThreadRow `json:"threads"`
	ThreadCount int         `json:"thread_count"`

	Hours [24]HourRow `json:"hours"`

	APICalls   []APIRow       `json:"api_calls,omitempty"`
	Exceptions []ExceptionRow `json:"exceptions,omitempty"`

	Summary analyzer.Summary `json:"summary"`
}

// DateRange spans the first and last entry.
type DateRange struct {
	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

// String renders the range as "<from> to <to>".
func (d DateRange) String() string {
	return FormatDate(d.From) + " to " + FormatDate(d.To)
}

// MarshalJSON renders both ends with DisplayDateLayout.
func (d DateRange) MarshalJSON() ([]byte, error) {
	return marshalDateRange(d)
}

// LevelRow is one row of the level distribution.
type LevelRow struct {
	Level      parser.Level `json:"level"`
	Count      int          `json:"count"`
	Percentage float64      `json:"percentage"`
}

// ThreadRow is one row of the thread distribution, keyed by correlation id
// or thread id.
type ThreadRow struct {
	Thread     string  `json:"thread"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HourRow counts entries whose hour of day is Hour.
type HourRow struct {
	Hour       int     `json:"hour"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Label renders the hour as "HH:00 - HH:59".
func (h HourRow) Label() string {
	return fmt.Sprintf("%02d:00 - %02d:59", h.Hour, h.Hour)
}

// APIRow summarizes one API path. Times are in milliseconds.
type APIRow struct {
	Path      string  `json:"path"`
	Calls     int     `json:"calls"`
	AvgTime   float64 `json:"avg_time_ms"`
	MinTime   int64   `json:"min_time_ms"`
	MaxTime   int64   `json:"max_time_ms"`
	ErrorRate float64 `json:"error_rate"`
}

// ExceptionRow summarizes one exception type.
type ExceptionRow struct {
	Type         string `json:"type"`
	Count        int    `json:"count"`
	TopMessage   string `json:"top_message"`
	MessageCount int    `json:"message_count"`
}

// NewReport builds a report from result. It returns ErrNoData when the
// result holds no entries. The same result always produces the same report.
func NewReport(result *analyzer.Result, opts ReportOptions) (*Report, error) {
	if result == nil || result.IsEmpty() {
		return nil, ErrNoData
	}

	entries := result.Entries
	total := len(entries)

	report := &Report{
		DateRange: DateRange{
			From: entries[0].Date,
			To:   entries[total-1].Date,
		},
		TotalLogs: total,
		Summary:   result.Summary,
	}

	levels := newCounter()
	threads := newCounter()
	for _, e := range entries {
		levels.add(string(e.Level))
		threads.add(e.ThreadKey())
		report.Hours[e.Date.Hour()].Count++
		if e.Level == parser.LevelError {
			report.TotalErrors++
		}
	}

	for _, kc := range levels.sorted() {
		report.Levels = append(report.Levels, LevelRow{
			Level:      parser.Level(kc.key),
			Count:      kc.count,
			Percentage: percent(kc.count, total),
		})
	}

	top := opts.TopThreads
	if top == 0 {
		top = DefaultTopThreads
	}
	sortedThreads := threads.sorted()
	report.ThreadCount = len(sortedThreads)
	if top > 0 && len(sortedThreads) > top {
		sortedThreads = sortedThreads[:top]
	}
	for _, kc := range sortedThreads {
		report.Threads = append(report.Threads, ThreadRow{
			Thread:     kc.key,
			Count:      kc.count,
			Percentage: percent(kc.count, total),
		})
	}

	for h := range report.Hours {
		report.Hours[h].Hour = h
		report.Hours[h].Percentage = percent(report.Hours[h].Count, total)
	}

	for _, s := range result.APIStats {
		if s.Count == 0 {
			continue
		}
		report.APICalls = append(report.APICalls, APIRow{
			Path:      s.Path,
			Calls:     s.Count,
			AvgTime:   roundHalfUp(s.AverageTime(), 2),
			MinTime:   s.MinTime,
			MaxTime:   s.MaxTime,
			ErrorRate: roundHalfUp(s.ErrorRate(), 1),
		})
	}

	for _, s := range result.ExceptionStats {
		msg, n := s.TopMessage()
		report.Exceptions = append(report.Exceptions, ExceptionRow{
			Type:         s.Type,
			Count:        s.Count,
			TopMessage:   msg,
			MessageCount: n,
		})
	}

	return report, nil
}

// HasErrors returns true if the report covers any error-level entry or
// exception.
func (r *Report) HasErrors() bool {
	return r.TotalErrors > 0 || len(r.Exceptions) > 0
}

type keyCount struct {
	key   string
	count int
}

// counter tallies keys and remembers the order they were first seen.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter {
	return &counter{n: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.n[key]; !ok {
		c.order = append(c.order, key)
	}
	c.n[key]++
}

// keys returns keys in JavaScript property order: canonical non-negative
// integer keys ascending, then the remaining keys in first-seen order.
func (c *counter) keys() []string {
	var ints, rest []string
	for _, k := range c.order {
		if isArrayIndex(k) {
			ints = append(ints, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Slice(ints, func(i, j int) bool {
		a, _ := strconv.ParseUint(ints[i], 10, 32)
		b, _ := strconv.ParseUint(ints[j], 10, 32)
		return a < b
	})
	return append(ints, rest...)
}

// sorted returns keys by count descending; ties keep the order of keys.
func (c *counter) sorted() []keyCount {
	out := make([]keyCount, 0, len(c.order))
	for _, k := range c.keys() {
		out = append(out, keyCount{key: k, count: c.n[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	return out
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundHalfUp(float64(count)/float64(total)*100, 1)
}

// roundHalfUp rounds x to places decimal places, halves away from zero.
func roundHalfUp(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
