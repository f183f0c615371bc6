package postgres

import (
	"context"
	"database/sql"

	"github.com/ordersys/stockreserve/internal/domain"
)

type OrderRepository struct {
	q querier
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, status, order_date, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.Status, &order.OrderDate,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return order, nil
}
