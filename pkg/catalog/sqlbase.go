package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/relalg/pkg/core"
)

// sqlBase holds the connection plumbing shared by the database sources.
// When db is set the source introspects through it and leaves it open;
// otherwise it opens its own connection for the duration of Fetch.
type sqlBase struct {
	driver string
	dsn    string
	db     *sql.DB
	logger *slog.Logger
}

// introspect runs query, which must return (table, column, type) rows
// ordered by table and column position, and folds them into a catalog.
func (b *sqlBase) introspect(ctx context.Context, prepare func(ctx context.Context, db *sql.DB) error, query string, args ...any) (core.MapCatalog, error) {
	db := b.db
	if db == nil {
		var err error
		db, err = b.open(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			b.logger.Debug("closing database connection")
			_ = db.Close()
		}()
	}

	if prepare != nil {
		if err := prepare(ctx, db); err != nil {
			return nil, err
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cat := make(core.MapCatalog)
	for rows.Next() {
		var table string
		var col core.Column
		var typ sql.NullString
		if err := rows.Scan(&table, &col.Name, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Type = typ.String
		cat[table] = append(cat[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	b.logger.Debug("catalog introspected", slog.Int("tables", len(cat)))
	return cat, nil
}

func (b *sqlBase) open(ctx context.Context) (*sql.DB, error) {
	b.logger.Debug("connecting", slog.String("driver", b.driver))

	db, err := sql.Open(b.driver, b.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", b.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", b.driver, err)
	}
	return db, nil
}

// informationSchemaQuery lists the columns of one schema. placeholder is
// the driver's first bind parameter.
func informationSchemaQuery(placeholder string) string {
	return `
		SELECT
			table_name,
			column_name,
			data_type
		FROM information_schema.columns
		WHERE table_schema = ` + placeholder + `
		ORDER BY table_name, ordinal_position
	`
}
