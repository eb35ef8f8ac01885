// Package commands implements the logsift subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/analyzer"
	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/filter"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ErrNoSources is returned when neither arguments nor the configuration name
// any log file.
var ErrNoSources = errors.New("no log files given (pass files or set log_sources in the config)")

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// FilterOptions holds the entry filter flags of view and export.
type FilterOptions struct {
	Levels []string
	From   string
	To     string
	Search string
}

func (f *FilterOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.Levels, "level", "l", nil, "Levels to include (debug,information,warning,error or DBG,INF,WRN,ERR)")
	cmd.Flags().StringVar(&f.From, "from", "", "Only entries at or after this date")
	cmd.Flags().StringVar(&f.To, "to", "", "Only entries at or before this date")
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "Case-insensitive text in message or exception")
}

// criteria merges the flags over the configured default filter. A flag that
// was not set keeps the configured value.
func (f *FilterOptions) criteria(cfg *config.Config) (filter.Criteria, error) {
	levels, from, to, search := cfg.Filters.Levels, cfg.Filters.From, cfg.Filters.To, cfg.Filters.Search
	if len(f.Levels) > 0 {
		levels = f.Levels
	}
	if f.From != "" {
		from = f.From
	}
	if f.To != "" {
		to = f.To
	}
	if f.Search != "" {
		search = f.Search
	}

	c, err := filter.NewCriteria(levels, from, to, search, cfg.Location())
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("invalid filter: %w", err)
	}
	return c, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig loads --config, or the defaults when it is not set.
func loadConfig(ctx context.Context, global *GlobalOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, global.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveFiles expands args, or the configured log sources when args is
// empty, into file paths.
func resolveFiles(cfg *config.Config, args []string) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.LogSources
	}
	if len(patterns) == 0 {
		return nil, ErrNoSources
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return nil, fmt.Errorf("expanding log sources: %w", err)
	}
	return files, nil
}

func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	return analyzer.NewAnalyzer(
		analyzer.WithLocation(cfg.Location()),
		analyzer.WithErrorAttribution(cfg.Analysis.AttributeExceptionsEnabled()),
		analyzer.WithReadConcurrency(cfg.Analysis.ReadConcurrency),
	)
}

// parseFiles reads and parses files. Unreadable files are logged and
// skipped; it fails only when none could be read.
func parseFiles(ctx context.Context, cfg *config.Config, files []string) (*analyzer.Result, error) {
	res, failures, err := newAnalyzer(cfg).ParseFiles(ctx, files)
	for _, f := range failures {
		log.Warn().Str("file", f.Path).Err(f.Err).Msg("skipping unreadable log file")
	}
	if err != nil {
		return nil, err
	}
	if len(failures) == len(files) {
		return nil, fmt.Errorf("none of the %d log file(s) could be read", len(files))
	}

	log.Info().Int("files", len(files)-len(failures)).Msg(res.Summary.String())
	return res, nil
}

// loadAndParse is the common front half of report, view and export.
func loadAndParse(ctx context.Context, global *GlobalOptions, args []string) (*config.Config, *analyzer.Result, error) {
	cfg, err := loadConfig(ctx, global)
	if err != nil {
		return nil, nil, err
	}
	files, err := resolveFiles(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	res, err := parseFiles(ctx, cfg, files)
	if err != nil {
		return nil, nil, err
	}
	return cfg, res, nil
}
