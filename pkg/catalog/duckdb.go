package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/relalg/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDBParams holds DuckDB-specific configuration.
// Parsed from Config.Params using mapstructure.
type DuckDBParams struct {
	// Extensions to install and load before introspection (e.g. "json").
	Extensions []string `mapstructure:"extensions"`

	// Settings applied to the session (e.g. memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

// DuckDBSource introspects one schema of a DuckDB database.
type DuckDBSource struct {
	sqlBase
	schema string
	params DuckDBParams
}

// NewDuckDBSource creates a DuckDB source. An empty cfg.Path opens an
// in-memory database.
func NewDuckDBSource(cfg Config, logger *slog.Logger) (*DuckDBSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	params, err := ParseDuckDBParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "main"
	}
	return &DuckDBSource{
		sqlBase: sqlBase{driver: "duckdb", dsn: path, logger: logger},
		schema:  schema,
		params:  params,
	}, nil
}

// ParseDuckDBParams decodes the source's free-form params.
func ParseDuckDBParams(raw map[string]any) (DuckDBParams, error) {
	var p DuckDBParams
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// Name implements Source.
func (s *DuckDBSource) Name() string { return "duckdb" }

// Fetch implements Source.
func (s *DuckDBSource) Fetch(ctx context.Context) (core.MapCatalog, error) {
	return s.introspect(ctx, s.prepare, informationSchemaQuery("?"), s.schema)
}

// prepare loads extensions and applies session settings.
func (s *DuckDBSource) prepare(ctx context.Context, db *sql.DB) error {
	for _, ext := range s.params.Extensions {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(s.params.Settings)) {
		value := strings.ReplaceAll(s.params.Settings[key], "'", "''")
		//nolint:gosec // setting names come from the user's own config
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", key, value)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

func init() {
	Register("duckdb", func(cfg Config, logger *slog.Logger) (Source, error) {
		src, err := NewDuckDBSource(cfg, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}

var _ Source = (*DuckDBSource)(nil)
