package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const resultsTable = "harvested_values"

const createResultsTable = `
	CREATE TABLE IF NOT EXISTS harvested_values (
		run_id     UUID        NOT NULL,
		filter     TEXT        NOT NULL,
		position   INTEGER     NOT NULL,
		value      TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, filter, position)
	)`

// Conn is the subset of DB the result store needs.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ResultStore mirrors written result sets into Postgres, one row per value,
// keyed by run and filter. Rewriting a filter within a run replaces its rows.
type ResultStore struct {
	conn   Conn
	runID  uuid.UUID
	logger *slog.Logger
}

func NewResultStore(conn Conn, runID uuid.UUID, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{
		conn:   conn,
		runID:  runID,
		logger: logger.With("component", "result_store"),
	}
}

func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, createResultsTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", resultsTable, err)
	}
	return nil
}

func (s *ResultStore) Write(ctx context.Context, key string, values []string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM harvested_values WHERE run_id = $1 AND filter = $2`,
		s.runID, key,
	); err != nil {
		return fmt.Errorf("failed to clear previous rows: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{resultsTable},
		[]string{"run_id", "filter", "position", "value"},
		pgx.CopyFromSlice(len(values), func(i int) ([]interface{}, error) {
			return []interface{}{s.runID, key, i + 1, values[i]}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy values: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("mirrored values", "filter", key, "rows", n, "run_id", s.runID)
	return nil
}
