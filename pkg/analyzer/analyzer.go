package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// Analyzer parses log text into a Result. It holds only configuration, so a
// single Analyzer may be used for many parses; every parse starts from empty
// state.
type Analyzer struct {
	loc             *time.Location
	attributeErrors bool
	readConcurrency int
	observers       []parser.Observer
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithLocation sets the location header dates are interpreted in.
// The default is time.Local.
func WithLocation(loc *time.Location) AnalyzerOption {
	return func(a *Analyzer) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithErrorAttribution controls whether exceptions raised by entries that
// share a correlation id with an API call are counted in that call's stats.
// Enabled by default.
func WithErrorAttribution(enabled bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.attributeErrors = enabled
	}
}

// WithReadConcurrency sets how many files ParseFiles reads at once.
func WithReadConcurrency(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.readConcurrency = n
		}
	}
}

// withObservers adds observers that see every line after the built-in
// trackers.
func withObservers(obs ...parser.Observer) AnalyzerOption {
	return func(a *Analyzer) {
		a.observers = append(a.observers, obs...)
	}
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		loc:             time.Local,
		attributeErrors: true,
		readConcurrency: parser.DefaultReadConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Parse assembles text into entries and computes API call and exception
// statistics. Empty input yields an empty result, not an error.
func (a *Analyzer) Parse(ctx context.Context, text string) (res *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	calls := NewAPICallTracker()
	exceptions := NewExceptionAggregator()
	if a.attributeErrors {
		exceptions.OnException(calls.RecordError)
	}
	observers := append([]parser.Observer{calls, exceptions}, a.observers...)
	asm := parser.NewAssembler(parser.NewClassifier(a.loc), observers...)

	lineNum := 0
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ParseError{Line: lineNum, Err: fmt.Errorf("%v", r)}
		}
	}()

	for text != "" {
		lineNum++
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = ""
		}
		asm.Feed(line)
	}
	lineNum = 0

	entries := asm.Close()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	res = &Result{
		Entries:        entries,
		APIStats:       calls.Stats(),
		ExceptionStats: exceptions.Stats(),
	}
	res.Summary = summarize(entries)
	res.Summary.Lines = asm.Lines
	res.Summary.Dropped = asm.Dropped
	res.Summary.Exceptions = exceptions.Total()
	res.Summary.Duration = time.Since(start)

	if p := calls.Pending(); p != nil {
		log.Debug().Str("path", p.Path).Msg("request without response at end of input")
	}
	log.Debug().
		Int("lines", res.Summary.Lines).
		Int("entries", res.Summary.Entries).
		Int("dropped", res.Summary.Dropped).
		Int("api_paths", len(res.APIStats)).
		Int("exception_types", len(res.ExceptionStats)).
		Dur("took", res.Summary.Duration).
		Msg("parse complete")

	return res, nil
}

// ParseFiles reads paths concurrently, joins their contents in argument
// order and parses the result. Unreadable files are skipped and returned
// alongside the result.
func (a *Analyzer) ParseFiles(ctx context.Context, paths []string) (*Result, []*parser.FileReadError, error) {
	files, failures, err := parser.ReadSources(ctx, paths, a.readConcurrency)
	if err != nil {
		return nil, failures, fmt.Errorf("reading log sources: %w", err)
	}

	res, err := a.Parse(ctx, parser.JoinTexts(files))
	if err != nil {
		return nil, failures, err
	}
	return res, failures, nil
}

func summarize(entries []*parser.LogEntry) Summary {
	s := Summary{Entries: len(entries)}
	for _, e := range entries {
		if e.Format == parser.FormatThread {
			s.WithThread++
		} else {
			s.WithoutThread++
		}
		if e.CorrelationID != "" {
			s.WithCorrelation++
		}
		if e.Level == parser.LevelError {
			s.Errors++
		}
	}
	return s
}
