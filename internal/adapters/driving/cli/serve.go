package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the query and evidence-request endpoints:

  POST /api/rag/query              {"query": "...", "topK": 4}
  GET  /api/data/evidence-requests ?limit=200
  GET  /healthz

When ingest.refresh_interval is set, sources are re-ingested in the
background on that interval.`,
	Args:        cobra.NoArgs,
	Annotations: needs(needsUpstream),
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := current("query service", func(a *App) bool { return a.Query != nil })
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.Server.Addr
	}

	server, err := httpapi.NewServer(addr, &httpapi.Ports{
		Query:    a.Query,
		Evidence: a.Evidence,
	})
	if err != nil {
		return err
	}

	if a.Scheduler != nil {
		schedulerCtx, schedulerCancel := context.WithCancel(cmd.Context())
		defer schedulerCancel()

		go func() {
			if err := a.Scheduler.Start(schedulerCtx); err != nil {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()

		defer func() {
			if err := a.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}()
	}

	cmd.Printf("Serving on %s. Press Ctrl+C to stop.\n", addr)
	if err := server.Run(cmd.Context()); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
