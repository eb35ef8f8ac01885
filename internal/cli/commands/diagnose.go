package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/detector"
	"github.com/ccollicutt/logsift/pkg/parser"
	"github.com/ccollicutt/logsift/pkg/webhook"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Log source file existence and accessibility
- Whether the log files contain header lines logsift recognizes
- Webhook settings (and reachability with -v)

Example:
  logsift diagnose config.yaml
  logsift diagnose -v config.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	files, logResults := checkLogSources(cfg)
	results = append(results, logResults...)
	results = append(results, checkLogShapes(ctx, cfg, files, opts)...)
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'logsift inspect <log-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'logsift inspect <log-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Timezone: %s", cfg.Location()),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

// checkLogSources checks every configured source and returns the readable
// files it found.
func checkLogSources(cfg *config.Config) ([]string, []DiagnosticResult) {
	results := []DiagnosticResult{}

	if len(cfg.LogSources) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Sources",
			Status:  StatusWarning,
			Message: "No log sources defined; files must be passed on the command line",
			Suggests: []string{
				"Example: log_sources:\n  - /var/log/app/**/*.log",
			},
		})
		return nil, results
	}

	var readable []string
	for _, source := range cfg.LogSources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		files, err := parser.ExpandGlobs([]string{source})
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			results = append(results, result)
			continue
		}

		var missing, empty []string
		found := 0
		for _, f := range files {
			info, err := os.Stat(f)
			switch {
			case err != nil:
				missing = append(missing, f)
			case info.IsDir():
				missing = append(missing, f+" (directory)")
			case info.Size() == 0:
				empty = append(empty, f)
			default:
				found++
				readable = append(readable, f)
			}
		}

		switch {
		case found == 0 && len(empty) == 0:
			result.Status = StatusError
			result.Message = "Matches no files"
			result.Details = missing
			result.Suggests = []string{
				"Check if the log files exist at this path",
				"Use a glob pattern to match files in a directory, e.g. /var/log/app/*.log",
			}
		case len(empty) > 0 || len(missing) > 0:
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d readable file(s), %d empty, %d missing", found, len(empty), len(missing))
			result.Details = append(append([]string{}, empty...), missing...)
		default:
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Matches %d file(s)", found)
			result.Details = files
		}
		results = append(results, result)
	}

	if len(readable) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  StatusError,
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return readable, results
}

// checkLogShapes samples the first readable file and checks that it holds
// header lines.
func checkLogShapes(ctx context.Context, cfg *config.Config, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	if len(files) == 0 {
		return nil
	}

	logFile := files[0]
	result := DiagnosticResult{
		Check: fmt.Sprintf("Header Test: %s", filepath.Base(logFile)),
	}

	d := detector.New(detector.WithSampleSize(20), detector.WithLocation(cfg.Location()))
	det, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return []DiagnosticResult{result}
	}

	switch {
	case !det.HasHeaders():
		result.Status = StatusError
		result.Message = "No header lines in sample; this file will produce no entries"
		if best := det.BestMatch(); best != nil {
			result.Details = []string{"Sample line:", truncate(best.SampleLine, 80)}
		}
		result.Suggests = []string{
			"Headers look like: 2024-01-15 10:30:00.123 +00:00 [INF] [ThreadId] message",
			"Run 'logsift inspect " + logFile + "' for details",
		}
	case det.HeaderLines*2 < det.SampledLines:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Only %d/%d sample lines are headers", det.HeaderLines, det.SampledLines)
		result.Details = det.Notes
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d/%d sample lines are headers", det.HeaderLines, det.SampledLines)
		if opts.Verbose {
			result.Details = det.Notes
		}
	}

	return []DiagnosticResult{result}
}

// statusLabels maps a diagnostic status to its printed tag.
var statusLabels = map[string]string{
	StatusOK:      "PASS",
	StatusWarning: "WARN",
	StatusError:   "FAIL",
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprint(w, "=== logsift Configuration Diagnostics ===\n\n")

	tally := make(map[string]int, len(statusLabels))
	for _, r := range results {
		tally[r.Status]++
		fmt.Fprintf(w, "[%s] %s\n    %s\n", statusLabels[r.Status], r.Check, r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}
		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "---\nSummary: %d passed, %d warnings, %d errors\n",
		tally[StatusOK], tally[StatusWarning], tally[StatusError])

	switch {
	case tally[StatusError] > 0:
		fmt.Fprintln(w, "\nFix the errors above before running logsift.")
	case tally[StatusWarning] > 0:
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	// URL and trigger were validated when the config loaded.
	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = StatusWarning
			result.Message = "Webhook is disabled (trigger: never)"
		} else if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
				fmt.Sprintf("Retries: %d", wh.MaxRetries),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(ctx, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

// checkWebhookConnectivity probes the endpoint with HEAD. Any answer below
// 400 counts as reachable.
func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	status, err := webhook.NewClient().Probe(ctx, wh.URL, wh.Token, 5*time.Second)
	if err != nil {
		return DiagnosticResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("Cannot connect: %v", err),
			Suggests: []string{
				"Check if the webhook URL is correct",
				"Verify network connectivity",
			},
		}
	}

	if status < 400 {
		return DiagnosticResult{
			Status:  StatusOK,
			Message: fmt.Sprintf("Reachable (status %d)", status),
		}
	}
	return DiagnosticResult{
		Status:  StatusWarning,
		Message: fmt.Sprintf("Reachable but returned status %d", status),
		Suggests: []string{
			"The endpoint may only accept POST (reports are sent with POST)",
			"Check authentication if using a token",
		},
	}
}
