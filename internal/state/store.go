// Package state keeps the history of translated queries in SQLite.
// Every run of the pipeline, successful or not, can be recorded and
// listed later.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // sqlite driver
)

var errNotOpened = errors.New("database not opened")

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded pipeline invocation.
type Run struct {
	ID                  string        `json:"id"`
	Query               string        `json:"query"`
	OK                  bool          `json:"ok"`
	ErrorKind           string        `json:"error_kind,omitempty"`
	Message             string        `json:"message,omitempty"`
	Expression          string        `json:"expression,omitempty"`
	OptimizedExpression string        `json:"optimized_expression,omitempty"`
	Trace               []string      `json:"trace,omitempty"`
	Duration            time.Duration `json:"duration"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Store persists runs in a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the database at path. Use ":memory:" for an in-memory
// database.
func (s *Store) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.logger.Debug("history store opened", slog.String("path", path))
	s.db = db
	s.path = path
	return nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts run. An empty ID or zero CreatedAt is filled in.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return errNotOpened
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	trace, err := json.Marshal(run.Trace)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}

	s.logger.Debug("recording run", slog.String("id", run.ID), slog.Bool("ok", run.OK))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, query, ok, error_kind, message, expression, optimized_expression, trace, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.OK, run.ErrorKind, run.Message, run.Expression, run.OptimizedExpression,
		string(trace), run.Duration.Microseconds(), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const runColumns = `id, query, ok, error_kind, message, expression, optimized_expression, trace, duration_us, created_at`

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero
// or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var trace string
	var durationUS, createdAt int64
	if err := sc.Scan(&run.ID, &run.Query, &run.OK, &run.ErrorKind, &run.Message,
		&run.Expression, &run.OptimizedExpression, &trace, &durationUS, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(trace), &run.Trace); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	run.Duration = time.Duration(durationUS) * time.Microsecond
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}
