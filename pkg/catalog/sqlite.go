package catalog

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/relalg/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

const sqliteQuery = `
	SELECT
		m.name,
		p.name,
		p.type
	FROM sqlite_master m
	JOIN pragma_table_info(m.name) p
	WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'
	ORDER BY m.name, p.cid
`

// SQLiteSource introspects a SQLite database file.
type SQLiteSource struct {
	sqlBase
}

// NewSQLiteSource creates a source for the database at path.
// Use ":memory:" for an empty in-memory database.
func NewSQLiteSource(path string, logger *slog.Logger) *SQLiteSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = ":memory:"
	}
	return &SQLiteSource{sqlBase{driver: "sqlite", dsn: path, logger: logger}}
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite" }

// Fetch implements Source.
func (s *SQLiteSource) Fetch(ctx context.Context) (core.MapCatalog, error) {
	return s.introspect(ctx, nil, sqliteQuery)
}

func init() {
	Register("sqlite", func(cfg Config, logger *slog.Logger) (Source, error) {
		path := cfg.Path
		if path == "" {
			path = cfg.DSN
		}
		return NewSQLiteSource(path, logger), nil
	})
}

var _ Source = (*SQLiteSource)(nil)
