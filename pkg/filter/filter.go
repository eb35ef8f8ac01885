// Package filter selects log entries by level, date window and text search.
package filter

import (
	"strings"
	"time"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// Criteria is the set of conditions an entry must satisfy. The zero value
// enables no levels; use AllLevels for an open filter.
type Criteria struct {
	// Levels lists the enabled levels.
	Levels map[parser.Level]bool

	// From and To bound Date inclusively when set.
	From *time.Time
	To   *time.Time

	// Query is matched case-insensitively against the message and the
	// exception text.
	Query string
}

// AllLevels returns criteria that enable every level and nothing else.
func AllLevels() Criteria {
	levels := make(map[parser.Level]bool, len(parser.Levels))
	for _, l := range parser.Levels {
		levels[l] = true
	}
	return Criteria{Levels: levels}
}

// Match reports whether entry satisfies every condition in c.
func (c Criteria) Match(entry *parser.LogEntry) bool {
	return c.match(entry, strings.ToLower(c.Query))
}

func (c Criteria) match(entry *parser.LogEntry, query string) bool {
	if !c.Levels[entry.Level] {
		return false
	}
	if c.From != nil && entry.Date.Before(*c.From) {
		return false
	}
	if c.To != nil && entry.Date.After(*c.To) {
		return false
	}
	if query != "" {
		text := strings.ToLower(entry.Message + " " + entry.ExceptionText)
		if !strings.Contains(text, query) {
			return false
		}
	}
	return true
}

// Apply returns the entries matching c in their original order.
// The input slice is not modified.
func Apply(entries []*parser.LogEntry, c Criteria) []*parser.LogEntry {
	query := strings.ToLower(c.Query)
	out := make([]*parser.LogEntry, 0, len(entries))
	for _, e := range entries {
		if c.match(e, query) {
			out = append(out, e)
		}
	}
	return out
}
