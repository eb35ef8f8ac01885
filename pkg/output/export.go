package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// ExportPlainText writes entries in the header format they were parsed
// from, one header line per entry followed by its exception block when that
// block is not blank. Parsing the output yields the same entries.
func ExportPlainText(w io.Writer, entries []*parser.LogEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s [%s] [%s] %s\n",
			e.Timestamp, e.Level.Abbreviation(), e.ThreadID, e.Message); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		if strings.TrimSpace(e.ExceptionText) != "" {
			if _, err := bw.WriteString(e.ExceptionText); err != nil {
				return fmt.Errorf("writing exception: %w", err)
			}
		}
	}
	return bw.Flush()
}

// ExportDocument is the downloadable JSON report.
type ExportDocument struct {
	DateRange DateRange     `json:"dateRange"`
	TotalLogs int           `json:"totalLogs"`
	ByLevel   orderedCounts `json:"byLevel"`
	ByThread  orderedCounts `json:"byThread"`
	ByHour    orderedCounts `json:"byHour"`
}

// NewExportDocument counts entries by level, thread and hour. Every thread
// is included. It returns ErrNoData for an empty entry list.
func NewExportDocument(entries []*parser.LogEntry) (*ExportDocument, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	doc := &ExportDocument{
		DateRange: DateRange{From: entries[0].Date, To: entries[len(entries)-1].Date},
		TotalLogs: len(entries),
		ByLevel:   orderedCounts{newCounter()},
		ByThread:  orderedCounts{newCounter()},
		ByHour:    orderedCounts{newCounter()},
	}
	for _, e := range entries {
		doc.ByLevel.add(string(e.Level))
		doc.ByThread.add(e.ThreadKey())
		doc.ByHour.add(strconv.Itoa(e.Date.Hour()))
	}
	return doc, nil
}

// Count returns the tally for key in the level, thread or hour table.
func (c orderedCounts) Count(key string) int {
	return c.n[key]
}

// ExportJSONReport writes the JSON report document for entries with a
// two-space indent.
func ExportJSONReport(w io.Writer, entries []*parser.LogEntry) error {
	doc, err := NewExportDocument(entries)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(doc)
}

// orderedCounts marshals as a JSON object whose keys follow counter.keys.
type orderedCounts struct {
	*counter
}

func (c orderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.n[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isArrayIndex(k string) bool {
	n, err := strconv.ParseUint(k, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return false
	}
	return strconv.FormatUint(n, 10) == k
}

func marshalDateRange(d DateRange) ([]byte, error) {
	return json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
	}{
		From: FormatDate(d.From),
		To:   FormatDate(d.To),
	})
}
