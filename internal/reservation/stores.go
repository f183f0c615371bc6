package reservation

import (
	"context"

	"github.com/ordersys/stockreserve/internal/domain"
)

// Store contracts implemented by the persistence layer. Lookups return
// (nil, nil) when the row is absent.

type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
}

type OrderLineStore interface {
	GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*domain.OrderLine, error)
	Add(ctx context.Context, line *domain.OrderLine) (*domain.OrderLine, error)
	Update(ctx context.Context, line *domain.OrderLine) error
}

type Stores struct {
	Orders   OrderStore
	Products ProductStore
	Lines    OrderLineStore
}

// Tx executes fn as a single atomic unit: either every store write in fn
// commits or none does. Implementations must return ErrConflict (possibly
// wrapped) when the unit aborts because of a concurrent update, so the
// service can retry.
type Tx interface {
	Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
