package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ordersys/stockreserve/internal/reservation"
)

// SQLSTATEs worth retrying: serialization_failure and deadlock_detected.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories need.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Tx runs units of work inside a single transaction. The product read
// takes a row lock (FOR UPDATE), so overlapping reservations against
// the same product queue on that row instead of both reading stale
// stock; distinct products never contend. Retryable aborts surface as
// reservation.ErrConflict.
type Tx struct {
	db *sql.DB
}

func NewTx(db *sql.DB) *Tx {
	return &Tx{db: db}
}

func (t *Tx) Run(ctx context.Context, fn func(ctx context.Context, s reservation.Stores) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stores := reservation.Stores{
		Orders:   &OrderRepository{q: tx},
		Products: &ProductRepository{q: tx, lock: true},
		Lines:    &OrderLineRepository{q: tx},
	}

	if err := fn(ctx, stores); err != nil {
		return translateConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return translateConflict(err)
	}

	return nil
}

func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected) {
		return fmt.Errorf("%w: %v", reservation.ErrConflict, err)
	}
	return err
}
