// Package detector inspects log files and reports which line shapes and
// correlation encodings they contain.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches      []ShapeMatch // Shapes that matched, sorted by confidence descending
	SampledLines int          // Number of non-blank lines sampled
	HeaderLines  int          // Number of lines that start an entry

	// Correlations counts headers by correlation encoding.
	Correlations map[parser.CorrelationKind]int

	// UnknownLevels lists level codes that fall back to information, in
	// first-seen order.
	UnknownLevels []string

	// Notes explains findings that affect parsing.
	Notes []string
}

// ShapeMatch represents a shape that matched with its confidence score.
type ShapeMatch struct {
	Shape      *Shape
	Confidence float64   // 0.0 to 1.0 (fraction of sampled lines)
	MatchCount int       // Number of lines that matched
	SampleLine string    // First line that matched
	ParsedTime time.Time // Header date of the sample, zero for non-headers
}

// Detector samples log files and classifies their lines.
type Detector struct {
	shapes     []*Shape
	classifier *parser.Classifier
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithLocation sets the location header dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(d *Detector) {
		d.classifier = parser.NewClassifier(loc)
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		shapes:     DefaultShapes(),
		classifier: parser.NewClassifier(nil),
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes the head of a log file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of log lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		Correlations: make(map[parser.CorrelationKind]int),
	}

	type shapeStats struct {
		matchCount int
		sampleLine string
		parsedTime time.Time
	}
	stats := make(map[ShapeKind]*shapeStats)
	unknown := make(map[string]bool)

	record := func(kind ShapeKind, line string, ts time.Time) {
		s, ok := stats[kind]
		if !ok {
			s = &shapeStats{sampleLine: line, parsedTime: ts}
			stats[kind] = s
		}
		s.matchCount++
	}

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		hdr, ok := d.classifier.Classify(line)
		switch {
		case ok && hdr.Format == parser.FormatThread:
			record(ShapeThreadHeader, line, hdr.Date)
		case ok:
			record(ShapePlainHeader, line, hdr.Date)
		case parser.HasTimestamp(line):
			record(ShapeTimestampOnly, line, time.Time{})
			continue
		default:
			record(ShapeContinuation, line, time.Time{})
			continue
		}

		result.HeaderLines++
		result.Correlations[parser.ExtractCorrelation(hdr.Message).Kind]++
		if !parser.KnownLevelCode(hdr.LevelCode) && !unknown[hdr.LevelCode] {
			unknown[hdr.LevelCode] = true
			result.UnknownLevels = append(result.UnknownLevels, hdr.LevelCode)
		}
	}

	for kind, s := range stats {
		result.Matches = append(result.Matches, ShapeMatch{
			Shape:      shapeByKind(d.shapes, kind),
			Confidence: float64(s.matchCount) / float64(result.SampledLines),
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
			ParsedTime: s.parsedTime,
		})
	}

	// Sort by confidence descending, then headers before non-headers
	order := make(map[ShapeKind]int, len(d.shapes))
	for i, s := range d.shapes {
		order[s.Kind] = i
	}
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return order[result.Matches[i].Shape.Kind] < order[result.Matches[j].Shape.Kind]
	})

	result.Notes = d.notes(result, stats[ShapeTimestampOnly] != nil)
	return result
}

func (d *Detector) notes(result *DetectionResult, timestampOnly bool) []string {
	var notes []string
	if result.SampledLines > 0 && result.HeaderLines == 0 {
		notes = append(notes, "No header lines found; this file will produce no entries.")
	}
	if timestampOnly {
		notes = append(notes, "Some lines have a timestamp but no [LVL] tag; "+
			"they are appended to the previous entry instead of starting a new one.")
	}
	if len(result.UnknownLevels) > 0 {
		notes = append(notes, fmt.Sprintf("Unrecognized level codes %s are treated as information.",
			strings.Join(result.UnknownLevels, ", ")))
	}
	return notes
}

// sampleFile reads up to sampleSize non-blank lines from a file.
// Uses simple head sampling for efficiency.
func (d *Detector) sampleFile(_ context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < d.sampleSize {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *ShapeMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasHeaders returns true if at least one sampled line starts an entry.
func (r *DetectionResult) HasHeaders() bool {
	return r.HeaderLines > 0
}
