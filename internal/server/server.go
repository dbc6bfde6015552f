// Package server exposes the translation pipeline as a JSON HTTP API.
//
// Routes:
//
//	POST /api/translate   {"query": "..."} -> translation, or 422 when the query is rejected
//	POST /api/validate    {"query": "..."} -> {"ok": bool, "message": "...", "kind": "..."}
//	GET  /api/catalog     tables and columns the engine validates against
//	GET  /healthz
//
// Translations are cached by query text under the current engine. When a
// catalog file is watched, edits to it reload the catalog and clear the
// cache.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// ReloadFunc fetches the catalog again.
type ReloadFunc func(ctx context.Context) (core.MapCatalog, error)

// Config holds configuration for the API server.
type Config struct {
	Engine *engine.Engine
	Addr   string
	// CacheSize bounds the translation cache; 0 disables it.
	CacheSize int
	// CatalogFile is watched for changes when Watch is set.
	CatalogFile string
	Watch       bool
	// Reload is called when the catalog file changes (optional)
	Reload ReloadFunc
	Logger *slog.Logger
}

// Server is the API server.
type Server struct {
	engine atomic.Pointer[engine.Engine]
	// generation counts engine swaps. Cache keys carry it, so a result
	// computed by a replaced engine is never served.
	generation  atomic.Uint64
	cache       *lru.Cache
	addr        string
	catalogFile string
	watch       bool
	reload      ReloadFunc
	logger      *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new API server.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server requires an engine")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		addr:        cfg.Addr,
		catalogFile: cfg.CatalogFile,
		watch:       cfg.Watch && cfg.CatalogFile != "" && cfg.Reload != nil,
		reload:      cfg.Reload,
		logger:      logger,
	}
	s.engine.Store(cfg.Engine)

	if cfg.CacheSize > 0 {
		cache, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Engine returns the engine currently serving requests.
func (s *Server) Engine() *engine.Engine {
	return s.engine.Load()
}

type cacheKey struct {
	generation uint64
	query      string
}

// current returns the serving engine with the cache key for query under
// it. The generation is read first: Reload bumps it only after the swap.
func (s *Server) current(query string) (*engine.Engine, cacheKey) {
	key := cacheKey{generation: s.generation.Load(), query: query}
	return s.engine.Load(), key
}

// Addr returns the address the server listens on once Serve has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("starting API server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchCatalog(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Reload fetches the catalog again, swaps the engine and clears the cache.
// On failure the current engine stays in place.
func (s *Server) Reload(ctx context.Context) error {
	if s.reload == nil {
		return errors.New("catalog reload is not configured")
	}
	cat, err := s.reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}

	s.engine.Store(s.engine.Load().WithCatalog(cat))
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
	s.logger.Info("catalog reloaded", "tables", len(cat))
	return nil
}

// watchCatalog reloads the catalog when its file is written, created or
// renamed over.
func (s *Server) watchCatalog(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.catalogFile)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch catalog file", "file", target, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("catalog file changed", "file", event.Name)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
