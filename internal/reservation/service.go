package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ordersys/stockreserve/internal/domain"
)

// maxAttempts bounds the transparent retries after a serialization
// conflict before the call fails as internal.
const maxAttempts = 3

// Service implements the add-product-to-order workflow: validate the
// order and product, check available stock, reserve it and merge the
// requested quantity into the order's line items, all inside one atomic
// unit of work.
type Service struct {
	tx     Tx
	logger *slog.Logger
}

func NewService(tx Tx, logger *slog.Logger) *Service {
	return &Service{
		tx:     tx,
		logger: logger,
	}
}

// AddProductToOrder reserves quantity units of a product for an order
// and returns the resulting order line. Repeated calls for the same
// (order, product) pair accumulate into a single line; the line keeps
// the unit price captured when it was first created.
func (s *Service) AddProductToOrder(ctx context.Context, orderID, productID int64, quantity int) (*domain.OrderLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	var line *domain.OrderLine
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.tx.Run(ctx, func(ctx context.Context, st Stores) error {
			l, rerr := s.reserve(ctx, st, orderID, productID, quantity)
			if rerr != nil {
				return rerr
			}
			line = l
			return nil
		})
		if !errors.Is(err, ErrConflict) {
			break
		}
		s.logger.Warn("reservation conflict, retrying",
			"order_id", orderID, "product_id", productID, "attempt", attempt)
	}

	if err != nil {
		if isModeled(err) {
			return nil, err
		}
		return nil, &InternalError{Err: err}
	}

	s.logger.Info("product reserved",
		"order_id", orderID, "product_id", productID, "quantity", quantity, "line_id", line.ID)
	return line, nil
}

// reserve runs the reservation steps against transaction-scoped stores.
func (s *Service) reserve(ctx context.Context, st Stores, orderID, productID int64, quantity int) (*domain.OrderLine, error) {
	order, err := st.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}

	product, err := st.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	if available := product.Available(); available < quantity {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Available: available,
			Requested: quantity,
		}
	}

	line, err := st.Lines.GetByOrderAndProduct(ctx, orderID, productID)
	if err != nil {
		return nil, fmt.Errorf("get order line: %w", err)
	}

	if line != nil {
		line.Quantity += quantity
		if err := st.Lines.Update(ctx, line); err != nil {
			return nil, fmt.Errorf("update order line %d: %w", line.ID, err)
		}
	} else {
		line = &domain.OrderLine{
			OrderID:     orderID,
			ProductID:   productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			CreatedAt:   time.Now().UTC(),
			IsActive:    true,
		}
		line, err = st.Lines.Add(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("add order line: %w", err)
		}
	}

	product.Reserved += quantity
	if err := st.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product %d: %w", productID, err)
	}

	return line, nil
}

// isModeled reports whether err is one of the business error kinds that
// propagate to callers unchanged.
func isModeled(err error) bool {
	var insufficient *InsufficientStockError
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.As(err, &insufficient)
}
