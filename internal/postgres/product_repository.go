package postgres

import (
	"context"
	"database/sql"

	"github.com/ordersys/stockreserve/internal/domain"
)

type ProductRepository struct {
	q querier

	// lock makes GetByID take a row lock, serializing concurrent
	// reservations against the same product. Set for tx-scoped repos.
	lock bool
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{q: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}

	query := `
		SELECT id, name, description, price, stock, reserved, created_at, updated_at, is_active
		FROM products
		WHERE id = $1
	`
	if r.lock {
		query += " FOR UPDATE"
	}

	err := r.q.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Reserved, &product.CreatedAt, &product.UpdatedAt,
		&product.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, reserved = $6,
		    is_active = $7, updated_at = NOW()
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.Price,
		product.Stock, product.Reserved, product.IsActive)
	return err
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, price, stock, reserved, created_at, updated_at, is_active
		FROM products
		WHERE is_active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.Reserved, &product.CreatedAt,
			&product.UpdatedAt, &product.IsActive); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
