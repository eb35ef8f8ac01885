package parser

import "strings"

// Observer is notified while entries are assembled.
// Implementations must be safe for sequential access (not concurrent).
type Observer interface {
	// ObserveHeader is called for every new entry before the previously open
	// entry is closed.
	ObserveHeader(entry *LogEntry)

	// ObserveContinuation is called for every continuation line of entry.
	ObserveContinuation(entry *LogEntry, line string)
}

type assemblerState int

const (
	noOpenEntry assemblerState = iota
	openEntry
)

// Assembler folds classified lines into entries. It is either waiting for the
// first header (noOpenEntry) or accumulating continuation lines into the
// open entry (openEntry).
type Assembler struct {
	classifier *Classifier
	observers  []Observer

	state    assemblerState
	open     *LogEntry
	openText strings.Builder
	entries  []*LogEntry

	// Lines counts non-blank lines seen; Dropped counts continuation lines
	// that arrived while no entry was open.
	Lines   int
	Dropped int
}

// NewAssembler creates an assembler that classifies with c and notifies obs.
func NewAssembler(c *Classifier, obs ...Observer) *Assembler {
	return &Assembler{
		classifier: c,
		observers:  obs,
		state:      noOpenEntry,
	}
}

// Feed processes one raw line.
func (a *Assembler) Feed(line string) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	a.Lines++

	if hdr, ok := a.classifier.Classify(line); ok {
		a.onHeader(hdr)
		return
	}
	a.onContinuation(line)
}

func (a *Assembler) onHeader(hdr *Header) {
	corr := ExtractCorrelation(hdr.Message)
	entry := &LogEntry{
		Timestamp:     hdr.Timestamp,
		Date:          hdr.Date,
		Level:         hdr.Level,
		ThreadID:      hdr.ThreadID,
		Message:       corr.Message,
		Format:        hdr.Format,
		CorrelationID: corr.CorrelationID,
		RequestID:     corr.RequestID,
		Correlation:   corr.Kind,
	}

	for _, o := range a.observers {
		o.ObserveHeader(entry)
	}

	a.closeOpen()
	a.open = entry
	a.state = openEntry
}

func (a *Assembler) onContinuation(line string) {
	if a.state == noOpenEntry {
		a.Dropped++
		return
	}

	a.openText.WriteString(line)
	a.openText.WriteByte('\n')
	for _, o := range a.observers {
		o.ObserveContinuation(a.open, line)
	}
}

// Close closes the open entry, if any, and returns all assembled entries in
// input order. The assembler must not be fed after Close.
func (a *Assembler) Close() []*LogEntry {
	a.closeOpen()
	return a.entries
}

func (a *Assembler) closeOpen() {
	if a.state != openEntry {
		return
	}
	a.open.ExceptionText = a.openText.String()
	a.entries = append(a.entries, a.open)
	a.openText.Reset()
	a.open = nil
	a.state = noOpenEntry
}
