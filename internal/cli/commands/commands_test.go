package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
)

const errorLog = `2024-01-15 10:00:00.000 +00:00 [INF] [T1] started
2024-01-15 10:00:01.000 +00:00 [ERR] [T1] failed
System.TimeoutException: upstream timed out
2024-01-15 11:00:00.000 +00:00 [WRN] [T2] slow disk
`

const quietLog = `2024-01-15 10:00:00.000 +00:00 [INF] [T1] started
2024-01-15 10:00:01.000 +00:00 [DBG] [T1] done
`

// execute runs cmd with args and returns what it printed.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func utcConfig(t *testing.T, dir string, extra string) *GlobalOptions {
	t.Helper()
	path := writeFile(t, dir, "config.yaml", "timezone: UTC\n"+extra)
	return &GlobalOptions{ConfigPath: path}
}

func TestCommandFlags(t *testing.T) {
	global := &GlobalOptions{}
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewReportCommand(global), "report [log-file...]", []string{"output", "quiet", "no-color", "top", "fail-on-errors", "webhook-url", "webhook-token", "webhook-trigger"}},
		{NewViewCommand(global), "view [log-file...]", []string{"level", "from", "to", "search", "output", "limit", "offset", "page"}},
		{NewExportCommand(global), "export [log-file...]", []string{"level", "from", "to", "search", "out", "report"}},
		{NewInspectCommand(global), "inspect <log-file>", []string{"output", "sample", "all", "write-config"}},
		{NewWatchCommand(global), "watch [log-file...]", []string{"quiet-period", "webhooks"}},
		{NewServeCommand(global), "serve", []string{"addr"}},
		{NewValidateCommand(), "validate <config-file>", nil},
		{NewVersionCommand(), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			if tt.cmd.Use != tt.use {
				t.Errorf("Use = %q, want %q", tt.cmd.Use, tt.use)
			}
			for _, flag := range tt.flags {
				if tt.cmd.Flags().Lookup(flag) == nil {
					t.Errorf("Missing flag: %s", flag)
				}
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, NewVersionCommand())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "logsift "+Version+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestResolveFiles(t *testing.T) {
	tmpDir := t.TempDir()
	a := writeFile(t, tmpDir, "a.log", quietLog)
	b := writeFile(t, tmpDir, "b.log", quietLog)

	cfg := config.DefaultConfig()
	if _, err := resolveFiles(cfg, nil); !errors.Is(err, ErrNoSources) {
		t.Errorf("resolveFiles() error = %v, want ErrNoSources", err)
	}

	cfg.LogSources = []string{filepath.Join(tmpDir, "*.log")}
	files, err := resolveFiles(cfg, nil)
	if err != nil {
		t.Fatalf("resolveFiles() error = %v", err)
	}
	if len(files) != 2 || files[0] != a || files[1] != b {
		t.Errorf("resolveFiles() = %v, want [%s %s]", files, a, b)
	}

	files, err = resolveFiles(cfg, []string{b})
	if err != nil {
		t.Fatalf("resolveFiles() error = %v", err)
	}
	if len(files) != 1 || files[0] != b {
		t.Errorf("args should override log_sources, got %v", files)
	}
}

func TestFilterOptions_Criteria(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Filters.Levels = []string{"error"}
	cfg.Filters.Search = "timeout"
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if _, err := (&FilterOptions{}).criteria(cfg); err != nil {
		t.Errorf("criteria() from config error = %v", err)
	}
	if _, err := (&FilterOptions{Levels: []string{"loud"}}).criteria(cfg); err == nil {
		t.Error("criteria() expected error for unknown level")
	}
	if _, err := (&FilterOptions{From: "not a date"}).criteria(cfg); err == nil {
		t.Error("criteria() expected error for bad date")
	}
}

func TestReport_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "-o", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if doc["total_logs"] != float64(3) {
		t.Errorf("total_logs = %v, want 3", doc["total_logs"])
	}
	if doc["total_errors"] != float64(1) {
		t.Errorf("total_errors = %v, want 1", doc["total_errors"])
	}
	exceptions, _ := doc["exceptions"].([]any)
	if len(exceptions) != 1 {
		t.Errorf("exceptions = %v, want one type", doc["exceptions"])
	}
}

func TestReport_Quiet(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "-q", "--no-color")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "logsift: 3 logs, 1 errors, 0 API paths, 1 exception types\n" {
		t.Errorf("output = %q", out)
	}
}

func TestReport_Export(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "-o", "export")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"totalLogs": 3`) {
		t.Errorf("export output missing totalLogs:\n%s", out)
	}
}

func TestReport_NoEntries(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", "no headers here\n")

	out, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestReport_AllFilesUnreadable(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), filepath.Join(tmpDir, "missing.log"))
	if err == nil {
		t.Fatal("expected error when no file can be read")
	}
}

func TestReport_InvalidOptions(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	if _, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "--webhook-trigger", "sometimes"); err == nil {
		t.Error("expected error for invalid webhook trigger")
	}
	if _, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestReport_FailOnErrors(t *testing.T) {
	tmpDir := t.TempDir()
	errPath := writeFile(t, tmpDir, "err.log", errorLog)
	okPath := writeFile(t, tmpDir, "ok.log", quietLog)

	tests := []struct {
		name string
		file string
		want int
	}{
		{"errors found", errPath, 1},
		{"clean log", okPath, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ExitCode = 0
			t.Cleanup(func() { ExitCode = 0 })

			if _, err := execute(t, NewReportCommand(utcConfig(t, t.TempDir(), "")), tt.file, "-q", "--fail-on-errors"); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if ExitCode != tt.want {
				t.Errorf("ExitCode = %d, want %d", ExitCode, tt.want)
			}
		})
	}
}

func TestReport_Webhooks(t *testing.T) {
	var calls atomic.Int32
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	errPath := writeFile(t, tmpDir, "err.log", errorLog)
	okPath := writeFile(t, tmpDir, "ok.log", quietLog)

	tests := []struct {
		name      string
		file      string
		trigger   string
		wantCalls int32
	}{
		{"on_errors with errors", errPath, "on_errors", 1},
		{"on_errors without errors", okPath, "on_errors", 0},
		{"always", okPath, "always", 1},
		{"never", errPath, "never", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			_, err := execute(t, NewReportCommand(utcConfig(t, t.TempDir(), "")), tt.file, "-q",
				"--webhook-url", server.URL, "--webhook-token", "secret", "--webhook-trigger", tt.trigger)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("webhook calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if tt.wantCalls > 0 && gotAuth.Load() != "Bearer secret" {
				t.Errorf("Authorization = %v", gotAuth.Load())
			}
		})
	}
}

func TestReport_WebhookFailureDoesNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	if _, err := execute(t, NewReportCommand(utcConfig(t, tmpDir, "")), logPath, "-q", "--webhook-url", server.URL); err != nil {
		t.Errorf("Execute() error = %v, webhook failures should only be logged", err)
	}
}

func TestCollectWebhooks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Webhooks = []config.WebhookConfig{{Name: "ops", URL: "http://example.invalid"}}

	hooks := collectWebhooks(cfg, &ReportOptions{})
	if len(hooks) != 1 {
		t.Fatalf("collectWebhooks() = %d hooks, want 1", len(hooks))
	}

	hooks = collectWebhooks(cfg, &ReportOptions{WebhookURL: "http://cli.invalid", WebhookToken: "t"})
	if len(hooks) != 2 {
		t.Fatalf("collectWebhooks() = %d hooks, want 2", len(hooks))
	}
	cli := hooks[1]
	if cli.Name != "cli" || cli.URL != "http://cli.invalid" || cli.Token != "t" {
		t.Errorf("cli hook = %+v", cli)
	}
	if cli.Trigger != config.WebhookTriggerOnErrors {
		t.Errorf("cli trigger = %s, want on_errors", cli.Trigger)
	}
	if cli.Timeout != config.DefaultWebhookTimeout || cli.MaxRetries != config.DefaultWebhookRetries {
		t.Errorf("cli hook defaults = %+v", cli)
	}
}

func TestView(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	tests := []struct {
		name      string
		args      []string
		wantLines int
		want      string
	}{
		{"all", nil, 3, ""},
		{"level", []string{"--level", "error,WRN"}, 2, ""},
		{"search", []string{"--search", "TIMEOUT"}, 1, `"level":"error"`},
		{"to", []string{"--to", "2024-01-15 10:30"}, 2, ""},
		{"limit", []string{"--limit", "1", "--offset", "1"}, 1, `"message":"failed"`},
		{"page", []string{"--limit", "2", "--page", "2"}, 1, `"message":"slow disk"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{logPath, "-o", "json"}, tt.args...)
			out, err := execute(t, NewViewCommand(utcConfig(t, t.TempDir(), "")), args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != tt.wantLines {
				t.Errorf("got %d entries, want %d:\n%s", len(lines), tt.wantLines, out)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output missing %s:\n%s", tt.want, out)
			}
		})
	}
}

func TestView_ConfigFilters(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)
	global := utcConfig(t, tmpDir, "filters:\n  levels: [warning]\n")

	out, err := execute(t, NewViewCommand(global), logPath, "-o", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, "slow disk") {
		t.Errorf("expected only the warning entry:\n%s", out)
	}

	out, err = execute(t, NewViewCommand(global), logPath, "-o", "json", "--level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"message":"failed"`) || strings.Contains(out, "slow disk") {
		t.Errorf("--level should override the config filter:\n%s", out)
	}
}

func TestView_Text(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewViewCommand(utcConfig(t, tmpDir, "")), logPath, "--no-color", "--level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "failed") || !strings.Contains(out, "System.TimeoutException") {
		t.Errorf("text output missing entry:\n%s", out)
	}
}

func TestView_BadOptions(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	if _, err := execute(t, NewViewCommand(utcConfig(t, tmpDir, "")), logPath, "-o", "yaml"); err == nil {
		t.Error("expected error for unknown output format")
	}
	if _, err := execute(t, NewViewCommand(utcConfig(t, tmpDir, "")), logPath, "--from", "yesterday-ish"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestExport_PlainText(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewExportCommand(utcConfig(t, tmpDir, "")), logPath, "--level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "2024-01-15 10:00:01.000 +00:00 [ERR] [T1] failed\nSystem.TimeoutException: upstream timed out\n"
	if out != want {
		t.Errorf("export = %q, want %q", out, want)
	}
}

func TestExport_ReportToFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)
	outPath := filepath.Join(tmpDir, "log-report.json")

	out, err := execute(t, NewExportCommand(utcConfig(t, tmpDir, "")), logPath, "--report", "--out", outPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON export: %v", err)
	}
	if doc["totalLogs"] != float64(3) {
		t.Errorf("totalLogs = %v, want 3", doc["totalLogs"])
	}

	// A second export must not overwrite the first.
	if _, err := execute(t, NewExportCommand(utcConfig(t, tmpDir, "")), logPath, "--report", "--out", outPath); err == nil {
		t.Error("expected error when the output file exists")
	}
}

func TestExport_ReportIgnoresFilters(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewExportCommand(utcConfig(t, tmpDir, "")), logPath, "--report", "--level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON export: %v\n%s", err, out)
	}
	if doc["totalLogs"] != float64(3) {
		t.Errorf("totalLogs = %v, want 3", doc["totalLogs"])
	}
}

func TestExport_NoMatches(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", quietLog)

	out, err := execute(t, NewExportCommand(utcConfig(t, tmpDir, "")), logPath, "--level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "" {
		t.Errorf("expected empty export, got %q", out)
	}
}

func TestValidate(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", quietLog)
	configPath := writeFile(t, tmpDir, "config.yaml", `log_sources:
  - `+logPath+`
  - `+filepath.Join(tmpDir, "gone.log")+`
timezone: UTC
webhooks:
  - name: ops
    url: https://hooks.example.com/logsift
`)

	out, err := execute(t, NewValidateCommand(), configPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"Configuration valid!", "Timezone:    UTC", "1. [on_errors] ops", "  - " + logPath + "\n", "gone.log (warning:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_Invalid(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.yaml", "analysis:\n  top_threads: -5\nwebhooks:\n  - url: ftp://x\n")

	if _, err := execute(t, NewValidateCommand(), configPath); err == nil {
		t.Error("expected validation error")
	}
}

func TestInspect_Text(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"=== Log Shape Inspection ===", "Lines sampled: 4", "Header lines: 3", "Most common shape:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)

	out, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath, "-o", "json", "--all")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var doc JSONInspection
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.SampledLines != 4 || doc.HeaderLines != 3 {
		t.Errorf("sampled/header = %d/%d, want 4/3", doc.SampledLines, doc.HeaderLines)
	}
	if len(doc.Shapes) < 2 {
		t.Errorf("--all should list every shape, got %+v", doc.Shapes)
	}
}

func TestInspect_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := execute(t, NewInspectCommand(&GlobalOptions{}), filepath.Join(tmpDir, "missing.log")); err == nil {
		t.Error("expected error for missing file")
	}

	logPath := writeFile(t, tmpDir, "app.log", errorLog)
	if _, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath, "-o", "csv"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestInspect_WriteConfig(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", errorLog)
	configPath := filepath.Join(tmpDir, "logsift.yaml")

	out, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath, "-w", configPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Wrote starter config to: "+configPath) {
		t.Errorf("output missing confirmation:\n%s", out)
	}

	// The generated config must load.
	if _, err := execute(t, NewValidateCommand(), configPath); err != nil {
		t.Errorf("generated config does not validate: %v", err)
	}

	if _, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath, "-w", configPath); err == nil {
		t.Error("expected error when config exists")
	}
}

func TestInspect_WriteConfigWithoutHeaders(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "app.log", "just text\n")

	_, err := execute(t, NewInspectCommand(&GlobalOptions{}), logPath, "-w", filepath.Join(tmpDir, "c.yaml"))
	if err == nil || !strings.Contains(err.Error(), "no header lines") {
		t.Errorf("expected no header error, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
