package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// EntryRenderer writes individual log entries to an output stream.
type EntryRenderer interface {
	Render(entry *parser.LogEntry) error
}

// TextEntryRenderer prints entries with severity-based colors and
// highlights occurrences of a search query.
type TextEntryRenderer struct {
	w     io.Writer
	st    *styles
	query string
}

// NewTextEntryRenderer returns a renderer writing to w. An empty query
// disables highlighting.
func NewTextEntryRenderer(w io.Writer, query string, noColor bool) *TextEntryRenderer {
	return &TextEntryRenderer{
		w:     w,
		st:    newStyles(w, noColor),
		query: query,
	}
}

func (r *TextEntryRenderer) Render(entry *parser.LogEntry) error {
	lvl := r.st.level(entry.Level).Render(fmt.Sprintf("[%s]", entry.Level.Abbreviation()))
	thread := r.st.code.Render("[" + entry.ThreadKey() + "]")
	ts := r.st.muted.Render(FormatDate(entry.Date))

	line := fmt.Sprintf("%s %s %s %s\n", ts, lvl, thread, r.highlight(entry.Message))
	if strings.TrimSpace(entry.ExceptionText) != "" {
		for _, l := range strings.Split(strings.TrimRight(entry.ExceptionText, "\n"), "\n") {
			line += "    " + r.highlight(l) + "\n"
		}
	}

	_, err := io.WriteString(r.w, line)
	return err
}

// highlight wraps case-insensitive matches of the query in the highlight
// style.
func (r *TextEntryRenderer) highlight(s string) string {
	if r.query == "" {
		return s
	}

	lower := strings.ToLower(s)
	q := strings.ToLower(r.query)
	// Offsets are only valid when lowercasing keeps byte lengths.
	if len(lower) != len(s) {
		return s
	}

	var b strings.Builder
	for {
		i := strings.Index(lower, q)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(r.st.highlight.Render(s[i : i+len(q)]))
		s, lower = s[i+len(q):], lower[i+len(q):]
	}
}

// JSONEntryRenderer prints each entry as a single JSON object per line.
type JSONEntryRenderer struct {
	enc *json.Encoder
}

// NewJSONEntryRenderer returns a renderer writing JSON lines to w.
func NewJSONEntryRenderer(w io.Writer) *JSONEntryRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEntryRenderer{enc: enc}
}

func (r *JSONEntryRenderer) Render(entry *parser.LogEntry) error {
	return r.enc.Encode(entry)
}

// RenderAll renders every entry with r, stopping at the first error.
func RenderAll(r EntryRenderer, entries []*parser.LogEntry) error {
	for _, e := range entries {
		if err := r.Render(e); err != nil {
			return fmt.Errorf("rendering entry: %w", err)
		}
	}
	return nil
}
