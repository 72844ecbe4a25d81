package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ObservationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertObservations appends all rows inside a single transaction. Either
// every observation is committed or none are.
func (s *Store) InsertObservations(ctx context.Context, obs []observation.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin insert transaction", err)
	}

	for _, o := range obs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO observations (ticker, price, timestamp)
			VALUES ($1, $2, $3)
		`, o.Ticker, o.Price, o.Timestamp); err != nil {
			_ = tx.Rollback()
			return wrapErr("insert observation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit observations", err)
	}
	return nil
}

func (s *Store) ListByTicker(ctx context.Context, ticker string) ([]observation.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, price, timestamp
		FROM observations
		WHERE ticker = $1
	`, ticker)
	if err != nil {
		return nil, wrapErr("list by ticker", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func (s *Store) LatestByTicker(ctx context.Context, ticker string) (observation.Observation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticker, price, timestamp
		FROM observations
		WHERE ticker = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, ticker)

	var o observation.Observation
	if err := row.Scan(&o.ID, &o.Ticker, &o.Price, &o.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return observation.Observation{}, storage.ErrNotFound
		}
		return observation.Observation{}, wrapErr("latest by ticker", err)
	}
	return o, nil
}

func (s *Store) ListByTimeRange(ctx context.Context, ticker string, from, to int64) ([]observation.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, price, timestamp
		FROM observations
		WHERE ticker = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp
	`, ticker, from, to)
	if err != nil {
		return nil, wrapErr("list by time range", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]observation.Observation, error) {
	var result []observation.Observation
	for rows.Next() {
		var o observation.Observation
		if err := rows.Scan(&o.ID, &o.Ticker, &o.Price, &o.Timestamp); err != nil {
			return nil, wrapErr("scan observation", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate observations", err)
	}
	return result, nil
}

// wrapErr classifies database failures: integrity errors (pq class 23) become
// constraint violations, everything else is treated as a connection failure.
func wrapErr(op string, err error) error {
	kind := storage.ConnectionFailed

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		kind = storage.ConstraintViolation
	}
	return &storage.Error{Kind: kind, Op: op, Err: err}
}
