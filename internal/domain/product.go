package domain

import "time"

// Product tracks total owned stock and the units already committed to
// open orders. Price is in cents.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Reserved    int       `json:"reserved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `json:"is_active"`
}

// Available is the quantity eligible for new reservations.
func (p *Product) Available() int {
	return p.Stock - p.Reserved
}
