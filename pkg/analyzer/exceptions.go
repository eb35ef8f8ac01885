package analyzer

import (
	"regexp"
	"strings"

	"github.com/ccollicutt/logsift/pkg/parser"
)

var exceptionPattern = regexp.MustCompile(`([^:.]+Exception):\s*(.+)`)

// ExceptionStat tallies occurrences of one exception type.
type ExceptionStat struct {
	Type     string         `json:"type"`
	Count    int            `json:"count"`
	Messages map[string]int `json:"messages"`

	order []string
}

// TopMessage returns the most frequent message and its count.
// Ties go to the message seen first.
func (s *ExceptionStat) TopMessage() (string, int) {
	var (
		top   string
		count int
	)
	for _, msg := range s.order {
		if n := s.Messages[msg]; n > count {
			top, count = msg, n
		}
	}
	return top, count
}

// MessageOrder returns the distinct messages in first-seen order.
func (s *ExceptionStat) MessageOrder() []string {
	return s.order
}

func (s *ExceptionStat) add(message string) {
	s.Count++
	if _, ok := s.Messages[message]; !ok {
		s.order = append(s.order, message)
	}
	s.Messages[message]++
}

// ExceptionAggregator scans continuation lines of error entries for
// exception signatures.
type ExceptionAggregator struct {
	stats  []*ExceptionStat
	byType map[string]*ExceptionStat

	onException func(entry *parser.LogEntry)
}

// NewExceptionAggregator creates an empty aggregator.
func NewExceptionAggregator() *ExceptionAggregator {
	return &ExceptionAggregator{byType: make(map[string]*ExceptionStat)}
}

// Name returns the tracker name for logging.
func (a *ExceptionAggregator) Name() string {
	return "exceptions"
}

// OnException registers fn to be called with the owning entry every time an
// exception is counted.
func (a *ExceptionAggregator) OnException(fn func(entry *parser.LogEntry)) {
	a.onException = fn
}

// ObserveHeader is a no-op.
func (a *ExceptionAggregator) ObserveHeader(*parser.LogEntry) {}

// ObserveContinuation counts "<Type>Exception: <message>" lines that belong
// to error entries. The type is trimmed, so an indented
// "   FooException: x" counts as FooException rather than under a key that
// keeps the leading spaces.
func (a *ExceptionAggregator) ObserveContinuation(entry *parser.LogEntry, line string) {
	if entry.Level != parser.LevelError || !strings.Contains(line, "Exception:") {
		return
	}

	m := exceptionPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	typ := strings.TrimSpace(m[1])

	stat, ok := a.byType[typ]
	if !ok {
		stat = &ExceptionStat{Type: typ, Messages: make(map[string]int)}
		a.byType[typ] = stat
		a.stats = append(a.stats, stat)
	}
	stat.add(m[2])

	if a.onException != nil {
		a.onException(entry)
	}
}

// Stats returns the per-type stats in first-seen order.
func (a *ExceptionAggregator) Stats() []*ExceptionStat {
	return a.stats
}

// Total returns the number of exceptions counted across all types.
func (a *ExceptionAggregator) Total() int {
	total := 0
	for _, s := range a.stats {
		total += s.Count
	}
	return total
}
