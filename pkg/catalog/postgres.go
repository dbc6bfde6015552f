package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/relalg/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// PostgresSource introspects one schema of a PostgreSQL database.
type PostgresSource struct {
	sqlBase
	schema string
}

// NewPostgresSource creates a PostgreSQL source. cfg.DSN wins over the
// individual connection fields.
func NewPostgresSource(cfg Config, logger *slog.Logger) *PostgresSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildPostgresDSN(cfg)
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	logger.Debug("postgres source", slog.String("host", cfg.Host), slog.String("database", cfg.Database), slog.String("schema", schema))
	return &PostgresSource{
		sqlBase: sqlBase{driver: "pgx", dsn: dsn, logger: logger},
		schema:  schema,
	}
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres" }

// Fetch implements Source.
func (s *PostgresSource) Fetch(ctx context.Context) (core.MapCatalog, error) {
	return s.introspect(ctx, nil, informationSchemaQuery("$1"), s.schema)
}

func init() {
	Register("postgres", func(cfg Config, logger *slog.Logger) (Source, error) {
		return NewPostgresSource(cfg, logger), nil
	})
}

var _ Source = (*PostgresSource)(nil)
