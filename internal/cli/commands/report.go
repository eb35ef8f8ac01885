package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/output"
	"github.com/ccollicutt/logsift/pkg/webhook"
)

// ReportOptions holds command-line options for the report command.
type ReportOptions struct {
	Output       string
	Quiet        bool
	NoColor      bool
	Top          int
	FailOnErrors bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewReportCommand creates the report command.
func NewReportCommand(global *GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report [log-file...]",
		Short: "Summarize log files",
		Long: `Parse log files and print a report of what they contain.

The report covers:
  - Date range and totals
  - Level, thread and hour-of-day distributions
  - API call latency per path (request lines matched to their responses)
  - Exceptions grouped by type with their most frequent message

Output formats:
  text    tables for the terminal (default)
  json    the full report as JSON
  export  the downloadable JSON report document

Exit codes:
  0 - Report printed (or no log entries found)
  1 - Errors or exceptions found and --fail-on-errors is set
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|export)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no tables")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Number of threads to list (default from config, -1 for all)")
	cmd.Flags().BoolVar(&opts.FailOnErrors, "fail-on-errors", false, "Exit 1 when error entries or exceptions are found")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_errors", "When to fire webhook (on_errors|always|never)")

	return cmd
}

func runReport(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ReportOptions) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	switch config.WebhookTrigger(opts.WebhookTrigger) {
	case config.WebhookTriggerOnErrors, config.WebhookTriggerAlways, config.WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid webhook trigger %q (use on_errors, always or never)", opts.WebhookTrigger)
	}

	cfg, result, err := loadAndParse(ctx, global, args)
	if err != nil {
		return err
	}

	if opts.Output == "export" {
		err := output.ExportJSONReport(out, result.Entries)
		if errors.Is(err, output.ErrNoData) {
			log.Warn().Msg("no log entries found")
			return nil
		}
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	top := opts.Top
	if top == 0 {
		top = cfg.Analysis.TopThreads
	}
	report, err := output.NewReport(result, output.ReportOptions{TopThreads: top})
	if errors.Is(err, output.ErrNoData) {
		log.Warn().Msg("no log entries found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	if err := formatter.Format(ctx, report, out); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged but never fail the report.
	sendWebhooks(ctx, cfg, opts, report)

	if opts.FailOnErrors && report.HasErrors() {
		ExitCode = 1
	}
	return nil
}

func createFormatter(opts *ReportOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Quiet:   opts.Quiet,
		NoColor: opts.NoColor,
	})
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *ReportOptions, report *output.Report) []webhook.Result {
	hooks := collectWebhooks(cfg, opts)
	if len(hooks) == 0 {
		return nil
	}
	return webhook.NewClient().SendAll(ctx, report, hooks)
}

// collectWebhooks merges config file webhooks with the one given by flags.
func collectWebhooks(cfg *config.Config, opts *ReportOptions) []config.WebhookConfig {
	hooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	hooks = append(hooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnErrors
		}

		hooks = append(hooks, config.WebhookConfig{
			Name:       "cli",
			URL:        opts.WebhookURL,
			Token:      opts.WebhookToken,
			Trigger:    trigger,
			Timeout:    config.DefaultWebhookTimeout,
			MaxRetries: config.DefaultWebhookRetries,
		})
	}
	return hooks
}
