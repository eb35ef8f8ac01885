package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logsift/pkg/server"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the log engine over HTTP",
		Long: `Start an HTTP API that parses uploaded log text and answers queries on it.

Endpoints:
  POST   /api/v1/datasets                      upload raw text or multipart "files"
  GET    /api/v1/datasets/:id                  parse summary
  GET    /api/v1/datasets/:id/entries          filtered entries (levels, from, to, q, offset, limit)
  GET    /api/v1/datasets/:id/report           full report
  GET    /api/v1/datasets/:id/export/text      filtered plain-text export
  GET    /api/v1/datasets/:id/export/report    JSON report document
  DELETE /api/v1/datasets/:id                  drop a dataset
  GET    /healthz

Datasets are kept in memory only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config, \":8080\")")

	return cmd
}

func runServe(cmd *cobra.Command, global *GlobalOptions, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, global)
	if err != nil {
		return err
	}

	serverOpts := server.OptionsFromConfig(cfg)
	if opts.Addr != "" {
		serverOpts.Addr = opts.Addr
	}

	srv := server.New(newAnalyzer(cfg), server.NewInMemoryStore(), serverOpts)
	return srv.Run(ctx)
}
