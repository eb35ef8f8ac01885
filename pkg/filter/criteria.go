package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// ParseLevels builds a level set from names such as "error", "warning" or
// header codes such as "ERR". An empty list enables every level.
func ParseLevels(names []string) (map[parser.Level]bool, error) {
	if len(names) == 0 {
		return AllLevels().Levels, nil
	}

	levels := make(map[parser.Level]bool)
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			lvl, err := parseLevel(name)
			if err != nil {
				return nil, err
			}
			levels[lvl] = true
		}
	}
	if len(levels) == 0 {
		return AllLevels().Levels, nil
	}
	return levels, nil
}

func parseLevel(name string) (parser.Level, error) {
	lower := strings.ToLower(name)
	for _, l := range parser.Levels {
		if lower == string(l) || strings.EqualFold(name, l.Abbreviation()) {
			return l, nil
		}
	}
	switch lower {
	case "info":
		return parser.LevelInformation, nil
	case "warn":
		return parser.LevelWarning, nil
	}
	return "", fmt.Errorf("unknown level %q (valid: debug, information, warning, error)", name)
}

// ParseDate parses a date bound in loc. It accepts the formats dateparse
// understands, including "2024-01-15", "2024-01-15 10:30:00" and RFC3339.
// An empty string returns nil.
func ParseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

// NewCriteria assembles criteria from textual options.
func NewCriteria(levels []string, from, to, query string, loc *time.Location) (Criteria, error) {
	lv, err := ParseLevels(levels)
	if err != nil {
		return Criteria{}, err
	}
	fromTime, err := ParseDate(from, loc)
	if err != nil {
		return Criteria{}, fmt.Errorf("from: %w", err)
	}
	toTime, err := ParseDate(to, loc)
	if err != nil {
		return Criteria{}, fmt.Errorf("to: %w", err)
	}
	if fromTime != nil && toTime != nil && toTime.Before(*fromTime) {
		return Criteria{}, fmt.Errorf("to (%s) is before from (%s)", to, from)
	}

	return Criteria{
		Levels: lv,
		From:   fromTime,
		To:     toTime,
		Query:  query,
	}, nil
}
