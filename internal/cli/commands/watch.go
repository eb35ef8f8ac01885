package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/output"
	"github.com/ccollicutt/logsift/pkg/watcher"
	"github.com/ccollicutt/logsift/pkg/webhook"
)

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	Quiet    time.Duration
	Webhooks bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(global *GlobalOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [log-file...]",
		Short: "Re-parse log files whenever they change",
		Long: `Watch log files and parse all of them again each time one changes,
printing a one-line summary per parse.

Every parse starts from scratch; files are not tailed or merged as streams.
Rotated or recreated files keep being watched.

Example:
  logsift watch app.log
  logsift watch "logs/**/*.log" --webhooks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, global, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Quiet, "quiet-period", watcher.DefaultQuietPeriod, "Wait this long after the last change before parsing")
	cmd.Flags().BoolVar(&opts.Webhooks, "webhooks", false, "Send each report to the configured webhooks")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, global *GlobalOptions, opts *WatchOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(ctx, global)
	if err != nil {
		return err
	}
	files, err := resolveFiles(cfg, args)
	if err != nil {
		return err
	}

	w, err := watcher.New(files)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	log.Info().Strs("files", w.Paths()).Msg("watching")

	// Initial parse so the first summary does not wait for a change.
	reparse(ctx, out, cfg, files, opts)

	w.Run(ctx, opts.Quiet, func(changed []string) {
		log.Debug().Strs("changed", changed).Msg("re-parsing")
		reparse(ctx, out, cfg, files, opts)
	})
	return nil
}

// reparse parses files and prints one summary line. Errors are logged so a
// bad parse never stops the watch loop.
func reparse(ctx context.Context, w io.Writer, cfg *config.Config, files []string, opts *WatchOptions) {
	result, err := parseFiles(ctx, cfg, files)
	if err != nil {
		log.Error().Err(err).Msg("parse failed")
		return
	}

	report, err := output.NewReport(result, output.ReportOptions{TopThreads: cfg.Analysis.TopThreads})
	if errors.Is(err, output.ErrNoData) {
		fmt.Fprintf(w, "%s no log entries\n", time.Now().Format(time.TimeOnly))
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("building report failed")
		return
	}

	fmt.Fprintf(w, "%s ", time.Now().Format(time.TimeOnly))
	if err := output.NewTextFormatter(output.FormatOptions{Quiet: true}).Format(ctx, report, w); err != nil {
		log.Error().Err(err).Msg("writing summary failed")
	}

	if opts.Webhooks && len(cfg.Webhooks) > 0 {
		webhook.NewClient().SendAll(ctx, report, cfg.Webhooks)
	}
}
