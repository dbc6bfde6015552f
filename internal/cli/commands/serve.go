package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/internal/server"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translator over HTTP",
		Long: `Start a JSON HTTP API.

Routes:
  POST /api/translate   {"query": "..."}
  POST /api/validate    {"query": "..."}
  GET  /api/catalog
  GET  /healthz

Translations are cached by query text. With --watch, edits to a file
catalog are picked up without a restart.`,
		Example: `  # Serve with a catalog file, reloading it on change
  relalg serve --catalog catalog.yaml --addr :8765

  # Translate over HTTP
  curl -s localhost:8765/api/translate -d '{"query": "SELECT Nome FROM Cliente"}'`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:8765)")
	cmd.Flags().Int("cache-size", 0, "Number of translations to cache, 0 disables the cache (default: 256)")
	cmd.Flags().Bool("watch", true, "Reload a file catalog when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := cmdCtx.Cfg

	srvCfg := server.Config{
		Engine:    cmdCtx.Engine(),
		Addr:      cfg.Serve.Addr,
		CacheSize: cfg.Serve.CacheSize,
		Watch:     cfg.Serve.Watch,
		Logger:    cmdCtx.Logger.With("component", "server"),
	}
	if cfg.HasCatalog() {
		catCfg, logger := cfg.Catalog, cmdCtx.Logger
		srvCfg.Reload = func(ctx context.Context) (core.MapCatalog, error) {
			return engine.LoadCatalog(ctx, catCfg, logger)
		}
		// Only file-backed catalogs can be watched
		if catCfg.Source == "yaml" {
			srvCfg.CatalogFile = catCfg.Path
		}
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdCtx.Renderer.Muted("Listening on http://" + cfg.Serve.Addr + " (Ctrl+C to stop)")
	return srv.Serve(ctx)
}
