package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
)

// ErrNotFound is returned when a lookup matches no stored observation.
var ErrNotFound = errors.New("observation not found")

// ErrorKind classifies store failures.
type ErrorKind int

const (
	// ConnectionFailed covers unreachable databases, broken connections and
	// failed transactions.
	ConnectionFailed ErrorKind = iota
	// ConstraintViolation covers rejected rows (null columns, bad values).
	ConstraintViolation
)

// Error wraps an underlying store failure with its classification.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ObservationStore persists price observations. The table is append-only:
// implementations expose no update or delete operations.
type ObservationStore interface {
	// InsertObservations appends all rows within a single transaction; on
	// failure nothing is persisted.
	InsertObservations(ctx context.Context, obs []observation.Observation) error
	// ListByTicker returns every stored row for the ticker in insertion
	// order. An unknown ticker yields an empty slice, not an error.
	ListByTicker(ctx context.Context, ticker string) ([]observation.Observation, error)
	// LatestByTicker returns the row with the maximum timestamp for the
	// ticker, or ErrNotFound. When several rows share the maximum timestamp
	// any one of them may be returned.
	LatestByTicker(ctx context.Context, ticker string) (observation.Observation, error)
	// ListByTimeRange returns rows for the ticker whose timestamp falls in
	// [from, to], both bounds inclusive, sorted by timestamp ascending.
	ListByTimeRange(ctx context.Context, ticker string, from, to int64) ([]observation.Observation, error)
}
