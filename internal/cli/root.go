// Package cli provides the command-line interface for logsift.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	commands.ExitCode = 0
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "logsift",
		Short: "Parse, correlate and summarize application logs",
		Long: `logsift turns timestamped, multi-line application logs into structured
entries and reports on them.

Each entry starts with a header line:
  2024-01-15 10:30:00.123 +00:00 [INF] [ThreadId] message
  2024-01-15 10:30:00.123 +00:00 [INF] message

Lines without a header are attached to the previous entry as exception text.

While parsing, logsift:
  - correlates API gateway request and response lines into latency stats
  - aggregates exceptions by type and message
  - counts entries by level, thread and hour of day

Log files are given as arguments (glob patterns such as "logs/**/*.log" are
expanded) or through log_sources in the configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), global.LogLevel)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "info", "Diagnostic log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewReportCommand(global))
	rootCmd.AddCommand(commands.NewViewCommand(global))
	rootCmd.AddCommand(commands.NewExportCommand(global))
	rootCmd.AddCommand(commands.NewInspectCommand(global))
	rootCmd.AddCommand(commands.NewWatchCommand(global))
	rootCmd.AddCommand(commands.NewServeCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

// setupLogging sends human-readable diagnostics to w at the given level.
func setupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return fmt.Errorf("invalid log level %q (use debug, info, warn or error)", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return nil
}
