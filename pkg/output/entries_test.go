package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ccollicutt/logsift/pkg/parser"
)

func TestTextEntryRenderer(t *testing.T) {
	res := parseSample(t, sampleLog)

	var buf bytes.Buffer
	r := NewTextEntryRenderer(&buf, "", true)
	if err := RenderAll(r, res.Entries[2:3]); err != nil {
		t.Fatalf("RenderAll() error = %v", err)
	}

	want := "Mon, Jan 15, 2024 at 10:00:00.050 [ERR] [c1] Handler failed\n" +
		"    System.InvalidOperationException: bad state\n" +
		"       at Orders.Create()\n"
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}
}

func TestTextEntryRenderer_HighlightPlain(t *testing.T) {
	r := NewTextEntryRenderer(&bytes.Buffer{}, "ORDER", true)
	got := r.highlight("Order created, order shipped")
	if got != "Order created, order shipped" {
		t.Errorf("highlight() = %q", got)
	}
}

func TestTextEntryRenderer_HighlightSplits(t *testing.T) {
	r := NewTextEntryRenderer(&bytes.Buffer{}, "order", true)
	// Plain styles render the text unchanged, so every byte must survive
	// the split around matches.
	for _, s := range []string{"", "order", "no match", "xORDERyOrderz"} {
		if got := r.highlight(s); got != s {
			t.Errorf("highlight(%q) = %q", s, got)
		}
	}
}

func TestJSONEntryRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONEntryRenderer(&buf)

	entry := &parser.LogEntry{
		Timestamp: "2024-01-15 10:00:00.000 +00:00",
		Level:     parser.LevelError,
		ThreadID:  "T1",
		Message:   "<boom>",
		Format:    parser.FormatThread,
	}
	if err := r.Render(entry); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "<boom>") {
		t.Errorf("HTML should not be escaped: %s", buf.String())
	}

	var got parser.LogEntry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}
	if got.Level != parser.LevelError || got.ThreadID != "T1" || got.Message != "<boom>" {
		t.Errorf("round trip = %+v", got)
	}
}
