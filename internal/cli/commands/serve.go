package commands

import (
	"github.com/spf13/cobra"

	"github.com/droidscope/logdex/internal/api"
	"github.com/droidscope/logdex/internal/report"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	GlobalOptions
	Port       int
	QueueDepth int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the indexing engine over HTTP.

Endpoints:
  POST   /api/v1/reports/prepare         (synchronous index build)
  POST   /api/v1/reports/prepare/async   (queued build, poll the job)
  GET    /api/v1/reports/jobs/{id}
  POST   /api/v1/reports/{id}/query
  GET    /api/v1/reports
  DELETE /api/v1/reports/{id}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root (default ~/.logdex)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().IntVar(&opts.QueueDepth, "queue-depth", 16, "Max queued async builds")

	return cmd
}

func runServe(opts *ServeOptions) error {
	logger := newLogger()

	svc, cfg, err := newService(opts.GlobalOptions, logger)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	jobs := report.NewJobRunner(svc, opts.QueueDepth)
	server := api.NewServer(svc, jobs, logger, cfg.AppVersion)

	return server.ListenAndServe(port)
}
