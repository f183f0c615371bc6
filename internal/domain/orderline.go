package domain

import "time"

// OrderLine snapshots the product name and unit price at first
// reservation; later catalog price changes do not touch it. At most one
// active line exists per (order, product) pair.
type OrderLine struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}
