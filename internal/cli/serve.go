package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/api"
	"github.com/meshview/meshview/pkg/config"
)

// serveCommand creates the serve command exposing the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the topology over HTTP",
		Long: `Serve starts the refresh engine and exposes the topology over HTTP.

Endpoints are mounted under /api: graph, styles, paths, refresh, and
healthz. The engine refreshes on the configured interval; POST /api/refresh
forces a cycle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.API.Listen = listen
			}

			eng, cleanup, err := c.newEngine(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			c.pruneHistory(ctx, cfg)

			srv := &http.Server{
				Addr:              cfg.API.Listen,
				Handler:           api.NewServer(eng, cfg.Refresh.MaxHops, c.Logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// The engine loop and the listener share the command context;
			// cancelling it stops both.
			runErr := make(chan error, 1)
			go func() { runErr <- eng.Run(ctx) }()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			c.Logger.Info("serving", "addr", cfg.API.Listen, "interval", cfg.Refresh.Interval.Std())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-runErr
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "bind address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}

// pruneHistory trims archived snapshots to the configured retention.
func (c *CLI) pruneHistory(ctx context.Context, cfg config.Config) {
	if !cfg.Archive.Enabled || cfg.Archive.Keep <= 0 || cfg.Archive.MongoURI == "" {
		return
	}
	store, err := c.openArchive(ctx, cfg)
	if err != nil {
		c.Logger.Warn("archive prune skipped", "err", err)
		return
	}
	defer store.Close(ctx)

	removed, err := store.Prune(ctx, cfg.Archive.Keep)
	if err != nil {
		c.Logger.Warn("archive prune failed", "err", err)
		return
	}
	if removed > 0 {
		c.Logger.Debug("pruned archive", "removed", removed, "keep", cfg.Archive.Keep)
	}
}
