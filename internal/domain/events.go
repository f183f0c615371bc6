package domain

import "time"

type ProductReservedEvent struct {
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}
