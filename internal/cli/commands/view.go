package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/filter"
	"github.com/ccollicutt/logsift/pkg/output"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// ViewOptions holds command-line options for the view command.
type ViewOptions struct {
	FilterOptions

	Output  string
	Limit   int
	Offset  int
	Page    int
	NoColor bool
}

// NewViewCommand creates the view command.
func NewViewCommand(global *GlobalOptions) *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view [log-file...]",
		Short: "List log entries with filters",
		Long: `Parse log files and list the entries that pass the filters, oldest first.

Filters combine: an entry is listed only when its level is selected, its date
is inside --from/--to and its message or exception text contains --search.
Search matches are highlighted.

Example:
  logsift view app.log --level error,warning
  logsift view "logs/**/*.log" --search timeout --from "2024-01-15 10:00"
  logsift view app.log --page 2 --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, args, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum entries to print (0 for all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Skip this many matching entries")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Print this page of --limit entries (overrides --offset)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	return cmd
}

func runView(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ViewOptions) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	var renderer output.EntryRenderer
	switch opts.Output {
	case "text":
		renderer = output.NewTextEntryRenderer(out, opts.Search, opts.NoColor)
	case "json":
		renderer = output.NewJSONEntryRenderer(out)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	cfg, result, err := loadAndParse(ctx, global, args)
	if err != nil {
		return err
	}
	criteria, err := opts.criteria(cfg)
	if err != nil {
		return err
	}

	entries := filter.Apply(result.Entries, criteria)
	return output.RenderAll(renderer, opts.window(entries))
}

// window selects the requested slice of the filtered entries.
func (o *ViewOptions) window(entries []*parser.LogEntry) []*parser.LogEntry {
	if o.Page > 0 {
		return filter.Paginate(entries, o.Page, o.Limit).Entries
	}
	return filter.Window(entries, o.Offset, o.Limit)
}
