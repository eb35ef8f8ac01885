package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/detector"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(global *GlobalOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <log-file>",
		Short: "Check how a log file's lines will be parsed",
		Long: `Sample the head of a log file and report how its lines will be classified.

Reports:
  - Header lines with and without a thread id
  - Lines with a timestamp but no level tag (folded into the previous entry)
  - Continuation lines (exception text)
  - Correlation encodings found in headers (API gateway, [""], GUID)
  - Level codes that fall back to information

Optionally generates a starter config file with --write-config.

Example:
  logsift inspect /var/log/myapp.log
  logsift inspect --sample 500 --all /var/log/large.log
  logsift inspect -w logsift.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every line shape, not just the most common")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string, global *GlobalOptions, opts *InspectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	cfg, err := loadConfig(ctx, global)
	if err != nil {
		return err
	}

	d := detector.New(
		detector.WithSampleSize(opts.SampleSize),
		detector.WithLocation(cfg.Location()),
	)
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputInspectJSON(out, result, logFile, opts)
	case "text":
		return outputInspectText(out, result, logFile, opts)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputInspectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *InspectOptions) error {
	var b strings.Builder

	b.WriteString("=== Log Shape Inspection ===\n\n")
	fmt.Fprintf(&b, "File: %s\n", logFile)
	fmt.Fprintf(&b, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(&b, "Header lines: %d\n\n", result.HeaderLines)

	if result.SampledLines == 0 {
		b.WriteString("File is empty.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}
	best := result.BestMatch()
	fmt.Fprintf(&b, "Most common shape: %s\n", best.Shape.Name)
	for i, m := range matches {
		if i > 0 || opts.ShowAll {
			fmt.Fprintf(&b, "%d. %s\n", i+1, m.Shape.Name)
		}
		fmt.Fprintf(&b, "   %.1f%% (%d/%d lines), %s\n",
			m.Confidence*100, m.MatchCount, result.SampledLines, m.Shape.Description)
		fmt.Fprintf(&b, "   sample: %s\n", truncate(m.SampleLine, 100))
		if !m.ParsedTime.IsZero() {
			fmt.Fprintf(&b, "   parsed as: %s\n", m.ParsedTime.Format("2006-01-02 15:04:05.000 MST"))
		}
	}
	b.WriteString("\n")

	if result.HasHeaders() {
		b.WriteString("Correlation encodings in headers:\n")
		for _, kind := range []parser.CorrelationKind{
			parser.CorrelationAPIGW, parser.CorrelationAnonymous, parser.CorrelationGUID, parser.CorrelationNone,
		} {
			fmt.Fprintf(&b, "  %-10s %d\n", kind, result.Correlations[kind])
		}
		b.WriteString("\n")
	}

	for _, n := range result.Notes {
		fmt.Fprintf(&b, "Note: %s\n", n)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// JSONShape represents a shape match in JSON output.
type JSONShape struct {
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
}

// JSONInspection represents the full JSON output.
type JSONInspection struct {
	File          string         `json:"file"`
	SampledLines  int            `json:"sampled_lines"`
	HeaderLines   int            `json:"header_lines"`
	Shapes        []JSONShape    `json:"shapes"`
	Correlations  map[string]int `json:"correlations"`
	UnknownLevels []string       `json:"unknown_levels,omitempty"`
	Notes         []string       `json:"notes,omitempty"`
}

func outputInspectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *InspectOptions) error {
	doc := JSONInspection{
		File:          logFile,
		SampledLines:  result.SampledLines,
		HeaderLines:   result.HeaderLines,
		Shapes:        make([]JSONShape, 0, len(result.Matches)),
		Correlations:  make(map[string]int, len(result.Correlations)),
		UnknownLevels: result.UnknownLevels,
		Notes:         result.Notes,
	}
	for kind, n := range result.Correlations {
		doc.Correlations[string(kind)] = n
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}
	for _, m := range matches {
		doc.Shapes = append(doc.Shapes, JSONShape{
			Kind:       string(m.Shape.Kind),
			Name:       m.Shape.Name,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// writeStarterConfig writes a config that reads logFile.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}
	if !result.HasHeaders() {
		return fmt.Errorf("cannot generate config: no header lines found in %s", logFile)
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(generateStarterConfig(logFile, result)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, err := fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return err
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, result *detector.DetectionResult) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	best := result.BestMatch()
	return fmt.Sprintf(`# logsift configuration
# Generated by: logsift inspect
# Most common line shape: %s (%.0f%% of sampled lines)

log_sources:
  - %s
  # Add more log files or use globs:
  # - /var/log/myapp/**/*.log

# Header dates are read in this timezone (Local, UTC or an IANA name).
timezone: Local

analysis:
  attribute_exceptions: true
  top_threads: %d

# Default filter for view and export.
filters:
  levels: []
  search: ""

server:
  addr: ":8080"

# webhooks:
#   - name: ops
#     url: https://hooks.example.com/logsift
#     token: ${LOGSIFT_TOKEN}
#     trigger: on_errors
`, best.Shape.Name, best.Confidence*100, absLogFile, config.DefaultTopThreads)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
