package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/internal/server"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranking API over HTTP.",
	Long: `Start an HTTP server exposing domains, rankings, values and weights.

Routes:
  GET  /health
  GET  /metrics
  GET  /api/domains
  GET  /api/domains/{id}
  GET  /api/domains/{id}/ahp
  GET  /api/domains/{id}/table
  GET  /api/domains/{id}/category-weights
  PUT  /api/domains/{id}/category-weights
  POST /api/metric-values
  POST /api/metric-values/bulk
  GET  /api/rules

Examples:
  domainx serve --server-addr :9000
  domainx serve --rules-file rules.yaml --watch-rules`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := watchRules(ctx); err != nil {
			return err
		}

		srv, err := server.New(cfg, storeManager, ruleProvider, logger)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

// watchRules starts the rules file watcher when --watch-rules is set.
func watchRules(ctx context.Context) error {
	if !cfg.WatchRules {
		return nil
	}
	if cfg.RulesFile == "" {
		logger.Warn("--watch-rules has no effect without --rules-file")
		return nil
	}
	return ruleProvider.Watch(ctx, logger)
}
