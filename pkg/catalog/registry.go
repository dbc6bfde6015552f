package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory builds a source from its configuration.
type Factory func(cfg Config, logger *slog.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a source factory to the registry.
// Called by source implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a source factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewSource creates the source named by cfg.Source.
// A nil logger discards output.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("catalog source not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	factory, ok := Get(cfg.Source)
	if !ok {
		return nil, &UnknownSourceError{
			Source:    cfg.Source,
			Available: ListSources(),
		}
	}
	return factory(cfg, logger.With("component", "catalog", "source", cfg.Source))
}

// ListSources returns all registered source names (sorted).
func ListSources() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a source type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownSourceError is returned when an unknown source type is requested.
type UnknownSourceError struct {
	Source    string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown catalog source %q\nAvailable sources: %v\nHint: Check catalog.source in relalg.yaml", e.Source, e.Available)
}
