package reservation

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/ordersys/stockreserve/internal/domain"
)

// memEnv is an in-memory Tx implementation backing the unit tests. Run
// serializes units of work with a mutex and applies writes to a staged
// copy, so a failed unit leaves the committed state untouched.
type memEnv struct {
	mu sync.Mutex

	orders   map[int64]domain.Order
	products map[int64]domain.Product
	lines    map[int64]domain.OrderLine
	nextLine int64

	conflicts        int
	orderGetErr      error
	productUpdateErr error
	lineAddErr       error
}

func newMemEnv() *memEnv {
	return &memEnv{
		orders:   make(map[int64]domain.Order),
		products: make(map[int64]domain.Product),
		lines:    make(map[int64]domain.OrderLine),
		nextLine: 1,
	}
}

func (e *memEnv) addOrder(id, customerID int64) {
	e.orders[id] = domain.Order{
		ID:         id,
		CustomerID: customerID,
		Status:     domain.OrderStatusNew,
		OrderDate:  time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

func (e *memEnv) addProduct(id int64, name string, price int64, stock, reserved int) {
	e.products[id] = domain.Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		Reserved:  reserved,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		IsActive:  true,
	}
}

func (e *memEnv) setPrice(productID, price int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.products[productID]
	p.Price = price
	e.products[productID] = p
}

func (e *memEnv) product(id int64) domain.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.products[id]
}

func (e *memEnv) lineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func (e *memEnv) Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conflicts > 0 {
		e.conflicts--
		return fmt.Errorf("run unit: %w", ErrConflict)
	}

	tx := &memTx{
		env:      e,
		orders:   maps.Clone(e.orders),
		products: maps.Clone(e.products),
		lines:    maps.Clone(e.lines),
		nextLine: e.nextLine,
	}

	err := fn(ctx, Stores{
		Orders:   memOrders{tx},
		Products: memProducts{tx},
		Lines:    memLines{tx},
	})
	if err != nil {
		return err
	}

	e.orders = tx.orders
	e.products = tx.products
	e.lines = tx.lines
	e.nextLine = tx.nextLine
	return nil
}

// memTx holds the staged state of one unit of work.
type memTx struct {
	env      *memEnv
	orders   map[int64]domain.Order
	products map[int64]domain.Product
	lines    map[int64]domain.OrderLine
	nextLine int64
}

type memOrders struct{ tx *memTx }

func (s memOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if s.tx.env.orderGetErr != nil {
		return nil, s.tx.env.orderGetErr
	}
	o, ok := s.tx.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type memProducts struct{ tx *memTx }

func (s memProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := s.tx.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s memProducts) Update(ctx context.Context, product *domain.Product) error {
	if s.tx.env.productUpdateErr != nil {
		return s.tx.env.productUpdateErr
	}
	s.tx.products[product.ID] = *product
	return nil
}

type memLines struct{ tx *memTx }

func (s memLines) GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*domain.OrderLine, error) {
	for _, l := range s.tx.lines {
		if l.OrderID == orderID && l.ProductID == productID && l.IsActive {
			line := l
			return &line, nil
		}
	}
	return nil, nil
}

func (s memLines) Add(ctx context.Context, line *domain.OrderLine) (*domain.OrderLine, error) {
	if s.tx.env.lineAddErr != nil {
		return nil, s.tx.env.lineAddErr
	}
	stored := *line
	stored.ID = s.tx.nextLine
	s.tx.nextLine++
	s.tx.lines[stored.ID] = stored
	return &stored, nil
}

func (s memLines) Update(ctx context.Context, line *domain.OrderLine) error {
	if _, ok := s.tx.lines[line.ID]; !ok {
		return fmt.Errorf("order line %d does not exist", line.ID)
	}
	s.tx.lines[line.ID] = *line
	return nil
}
