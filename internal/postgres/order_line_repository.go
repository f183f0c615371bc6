package postgres

import (
	"context"
	"database/sql"

	"github.com/ordersys/stockreserve/internal/domain"
)

type OrderLineRepository struct {
	q querier
}

func NewOrderLineRepository(db *sql.DB) *OrderLineRepository {
	return &OrderLineRepository{q: db}
}

func (r *OrderLineRepository) GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*domain.OrderLine, error) {
	line := &domain.OrderLine{}

	err := r.q.QueryRowContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, created_at, is_active
		FROM order_items
		WHERE order_id = $1 AND product_id = $2 AND is_active = TRUE
	`, orderID, productID).Scan(&line.ID, &line.OrderID, &line.ProductID,
		&line.ProductName, &line.UnitPrice, &line.Quantity, &line.CreatedAt,
		&line.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return line, nil
}

func (r *OrderLineRepository) Add(ctx context.Context, line *domain.OrderLine) (*domain.OrderLine, error) {
	stored := *line

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, line.OrderID, line.ProductID, line.ProductName, line.UnitPrice,
		line.Quantity, line.CreatedAt, line.IsActive).Scan(&stored.ID)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *OrderLineRepository) Update(ctx context.Context, line *domain.OrderLine) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE order_items
		SET quantity = $2, is_active = $3
		WHERE id = $1
	`, line.ID, line.Quantity, line.IsActive)
	return err
}

func (r *OrderLineRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, created_at, is_active
		FROM order_items
		WHERE order_id = $1 AND is_active = TRUE
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.OrderLine{}
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID,
			&line.ProductName, &line.UnitPrice, &line.Quantity, &line.CreatedAt,
			&line.IsActive); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
