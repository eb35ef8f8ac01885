package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func createTestReport(t *testing.T) *Report {
	t.Helper()
	report, err := NewReport(parseSample(t, sampleLog), ReportOptions{})
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	return report
}

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format(t *testing.T) {
	f := NewTextFormatter(FormatOptions{NoColor: true})
	report := createTestReport(t)

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	wants := []string{
		"Log Report",
		"Date Range: Mon, Jan 15, 2024 at 09:59:59.900 to Mon, Jan 15, 2024 at 10:00:03.000",
		"Log Level Distribution",
		"INFORMATION",
		"57.1%",
		"Thread Distribution",
		"(top 4 of 4 threads)",
		"c1",
		"Time Distribution",
		"00:00 - 00:59",
		"23:00 - 23:59",
		"API Performance",
		"/api/orders",
		"250.00ms",
		"100.0%",
		"Exception Analysis",
		"Total Errors: 1",
		"InvalidOperationException",
		"bad state",
	}
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q", want)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("NoColor output contains escape sequences")
	}
}

func TestTextFormatter_Format_OmitsEmptySections(t *testing.T) {
	report, err := NewReport(parseSample(t, "2024-01-15 10:00:00.000 +00:00 [INF] [T1] hello"), ReportOptions{})
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{NoColor: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "API Performance") {
		t.Error("Output should not contain API section")
	}
	if strings.Contains(output, "Exception Analysis") {
		t.Error("Output should not contain exception section")
	}
	if strings.Contains(output, "NaN") {
		t.Error("Output contains NaN")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(t), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "logsift: 7 logs, 1 errors, 1 API paths, 1 exception types\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "text"},
		{name: "text", want: "text"},
		{name: "json", want: "json"},
		{name: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		f, err := NewFormatter(tt.name, FormatOptions{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewFormatter(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", tt.name, err)
		}
		if f.Name() != tt.want {
			t.Errorf("NewFormatter(%q).Name() = %q, want %q", tt.name, f.Name(), tt.want)
		}
	}
}
