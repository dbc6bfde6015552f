package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/relalg/internal/config"
	"github.com/leapstack-labs/relalg/internal/costmodel"
	"github.com/leapstack-labs/relalg/internal/state"
	"github.com/leapstack-labs/relalg/pkg/catalog"
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/optimizer"
)

// Setup is an engine assembled from configuration together with the
// resources it owns.
type Setup struct {
	Engine  *Engine
	Catalog core.MapCatalog // nil when no catalog is configured
	History *state.Store    // nil unless history is enabled
}

// Close releases the history store, if any.
func (s *Setup) Close() error {
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}

// FromConfig fetches the catalog, compiles the cost script and opens the
// history store as cfg requires, then builds the engine.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Setup, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Setup{}

	if cfg.HasCatalog() {
		cat, err := LoadCatalog(ctx, cfg.Catalog, logger)
		if err != nil {
			return nil, err
		}
		s.Catalog = cat
	}

	var estimator optimizer.Estimator
	if cfg.Optimizer.CostScript != "" {
		est, err := costmodel.Load(cfg.Optimizer.CostScript,
			costmodel.WithCatalog(catalogOrNil(s.Catalog)),
			costmodel.WithLogger(logger.With("component", "costmodel")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load cost script: %w", err)
		}
		estimator = est
	}

	if cfg.History {
		store, err := OpenHistory(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		s.History = store
	}

	s.Engine = New(Config{
		Catalog:    catalogOrNil(s.Catalog),
		Rules:      cfg.ValidateConfig(),
		Estimator:  estimator,
		UseCatalog: cfg.Optimizer.UseCatalog,
		History:    s.History,
		Logger:     logger.With("component", "engine"),
	})
	return s, nil
}

// LoadCatalog fetches the catalog described by cfg.
func LoadCatalog(ctx context.Context, cfg catalog.Config, logger *slog.Logger) (core.MapCatalog, error) {
	src, err := catalog.NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	cat, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog from %s source: %w", src.Name(), err)
	}
	logger.Debug("catalog loaded", "source", src.Name(), "tables", len(cat))
	return cat, nil
}

// OpenHistory opens and migrates the history store at path, creating its
// directory when needed.
func OpenHistory(path string, logger *slog.Logger) (*state.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewStore(logger.With("component", "state"))
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate history store: %w", err)
	}
	return store, nil
}

// catalogOrNil avoids handing a typed nil map to an interface.
func catalogOrNil(cat core.MapCatalog) core.Catalog {
	if cat == nil {
		return nil
	}
	return cat
}
