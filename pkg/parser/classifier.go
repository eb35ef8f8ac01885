package parser

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the Go layout of the date and time captured from a header.
const DateLayout = "2006-01-02 15:04:05.000"

var (
	timestampPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2}\.\d{3})\s+[+-]\d{2}:\d{2}`)
	threadHeader     = regexp.MustCompile(`^\[([A-Z]{3})\]\s+\[([^\]]+)\]\s+(.*)$`)
	plainHeader      = regexp.MustCompile(`^\[([A-Z]{3})\]\s+(.*)$`)
)

var levelCodes = map[string]Level{
	"DBG": LevelDebug,
	"VRB": LevelDebug,
	"INF": LevelInformation,
	"WRN": LevelWarning,
	"ERR": LevelError,
	"FTL": LevelError,
}

// LevelFromCode maps a three letter header code to a level.
// Unknown codes map to LevelInformation.
func LevelFromCode(code string) Level {
	if lvl, ok := levelCodes[strings.ToUpper(code)]; ok {
		return lvl
	}
	return LevelInformation
}

// Header is a classified header line, before correlation extraction.
type Header struct {
	Timestamp string
	Date      time.Time
	Level     Level

	// LevelCode is the three letter code as written in the line.
	LevelCode string

	ThreadID string
	Message  string
	Format   Format
}

// KnownLevelCode reports whether code has an explicit level mapping.
func KnownLevelCode(code string) bool {
	_, ok := levelCodes[strings.ToUpper(code)]
	return ok
}

// HasTimestamp reports whether line starts with a header timestamp.
func HasTimestamp(line string) bool {
	return timestampPattern.MatchString(line)
}

// Classifier decides whether a line starts a new entry.
type Classifier struct {
	loc *time.Location
}

// NewClassifier creates a classifier that interprets header dates in loc.
// A nil loc means time.Local.
func NewClassifier(loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.Local
	}
	return &Classifier{loc: loc}
}

// Classify returns the parsed header and true when line starts a new entry.
// Lines without a timestamp, with a timestamp but no recognized header shape,
// or with a date that does not exist are continuations.
func (c *Classifier) Classify(line string) (*Header, bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	ts := m[0]
	rest := strings.TrimSpace(line[len(ts):])

	hdr := &Header{Timestamp: ts}
	if hm := threadHeader.FindStringSubmatch(rest); hm != nil {
		hdr.Level = LevelFromCode(hm[1])
		hdr.LevelCode = hm[1]
		hdr.ThreadID = hm[2]
		hdr.Message = hm[3]
		hdr.Format = FormatThread
	} else if hm := plainHeader.FindStringSubmatch(rest); hm != nil {
		hdr.Level = LevelFromCode(hm[1])
		hdr.LevelCode = hm[1]
		hdr.ThreadID = NoThread
		hdr.Message = hm[2]
		hdr.Format = FormatNoThread
	} else {
		return nil, false
	}

	date, err := time.ParseInLocation(DateLayout, m[1]+" "+m[2], c.loc)
	if err != nil {
		return nil, false
	}
	hdr.Date = date

	return hdr, true
}
