package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/filter"
	"github.com/ccollicutt/logsift/pkg/output"
)

// ExportOptions holds command-line options for the export command.
type ExportOptions struct {
	FilterOptions

	Out    string
	Report bool
}

// NewExportCommand creates the export command.
func NewExportCommand(global *GlobalOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export [log-file...]",
		Short: "Export filtered entries as text or a JSON report",
		Long: `Parse log files and write the entries that pass the filters.

By default entries are written back in their header format, followed by any
exception lines, so the export can be parsed again. With --report a JSON
document with the date range, total and per-level, per-thread and per-hour
counts is written instead. The report covers all parsed entries and ignores
the filters.

Example:
  logsift export app.log --level error --out errors.log
  logsift export "logs/*.log" --report --out log-report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write to this file instead of stdout (will not overwrite)")
	cmd.Flags().BoolVar(&opts.Report, "report", false, "Write the JSON report document instead of log text")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ExportOptions) error {
	ctx := commandContext(cmd)

	cfg, result, err := loadAndParse(ctx, global, args)
	if err != nil {
		return err
	}
	criteria, err := opts.criteria(cfg)
	if err != nil {
		return err
	}
	// The report document always covers every parsed entry.
	entries := result.Entries
	if !opts.Report {
		entries = filter.Apply(entries, criteria)
	}
	if len(entries) == 0 {
		log.Warn().Msg("no log entries match the filters")
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Out != "" {
		// #nosec G304 -- user-provided output path is expected
		f, err := os.OpenFile(opts.Out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Report {
		err = output.ExportJSONReport(w, entries)
	} else {
		err = output.ExportPlainText(w, entries)
	}
	if err != nil && !errors.Is(err, output.ErrNoData) {
		return fmt.Errorf("writing export: %w", err)
	}

	if opts.Out != "" {
		log.Info().Str("file", opts.Out).Int("entries", len(entries)).Msg("export written")
	}
	return nil
}
