package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwbriones/scientist/experiment"
)

const defaultTable = "experiment_results"

const (
	schemaResults = `
		CREATE TABLE IF NOT EXISTS %s (
			id          varchar(64) not null,
			result_id   varchar(64) not null,
			experiment  varchar(255) not null,
			mismatched  int not null,
			ignored     int not null,
			record      text not null,
			created_at  varchar(64) not null
		)`

	queryInsertResult = `
		INSERT INTO %s (id, result_id, experiment, mismatched, ignored, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// SQL inserts one row per published result into a relational results
// table. The record column holds the full serialized Record; the remaining
// columns are denormalized for querying.
type SQL[T any] struct {
	experiment.DefaultHandler[T]

	db     *sql.DB
	table  string
	insert string
}

// SQLOption configures a SQL sink.
type SQLOption[T any] func(*SQL[T])

// WithTable overrides the default "experiment_results" table name.
func WithTable[T any](table string) SQLOption[T] {
	return func(s *SQL[T]) {
		s.table = table
	}
}

// NewSQL creates a sink on an existing database handle, which the caller
// keeps ownership of.
func NewSQL[T any](db *sql.DB, opts ...SQLOption[T]) *SQL[T] {
	s := &SQL[T]{
		db:    db,
		table: defaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.insert = fmt.Sprintf(queryInsertResult, s.table)

	return s
}

// EnsureSchema creates the results table if it does not exist.
func (s *SQL[T]) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(schemaResults, s.table)); err != nil {
		return fmt.Errorf("failed to create results table %s: %w", s.table, err)
	}

	return nil
}

// Publish inserts the result as a single row.
func (s *SQL[T]) Publish(ctx context.Context, result *experiment.Result[T]) error {
	rec := NewRecord(result)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	res, err := s.db.ExecContext(ctx, s.insert,
		rec.ID,
		rec.ResultID,
		rec.Experiment,
		len(result.Mismatched),
		len(result.Ignored),
		string(payload),
		rec.PublishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result %s: %w", result.ID, err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", count)
	}

	return nil
}
