package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a logsift configuration file without parsing any logs.

Checks:
  - YAML syntax
  - Timezone name
  - Filter levels and dates
  - Server and webhook settings
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Timezone:    %s\n", cfg.Location())
	fmt.Fprintf(w, "  Server:      %s\n", cfg.Server.Addr)
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))
	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		fmt.Fprintf(w, "    %d. [%s] %s\n", i+1, wh.Trigger, name)
	}

	printLogSources(w, cfg)
	return nil
}

// printLogSources reports which files the log sources match (warnings only).
func printLogSources(w io.Writer, cfg *config.Config) {
	if len(cfg.LogSources) == 0 {
		fmt.Fprintf(w, "\nNo log sources configured; pass log files on the command line.\n")
		return
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
		return
	}

	fmt.Fprintf(w, "\nLog files: %d\n", len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintf(w, "  - %s (warning: %v)\n", f, err)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", f)
	}
}
