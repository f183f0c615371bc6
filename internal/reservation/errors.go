package reservation

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrConflict is returned by Tx implementations when the atomic unit
	// aborted because of a concurrent update on the same rows.
	ErrConflict = errors.New("concurrent update conflict")
)

// InsufficientStockError carries the available and requested counts for
// caller diagnostics.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// InternalError wraps any collaborator fault not covered by the modeled
// error kinds. The cause is kept for logs; callers see a stable kind.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("reservation failed: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
