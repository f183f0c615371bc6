package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ordersys/stockreserve/internal/domain"
)

// LowStockHandler watches reservation events and warns when a product's
// remaining availability falls below the threshold. Alerts are log
// lines for now; replenishment itself happens elsewhere.
type LowStockHandler struct {
	threshold int
	logger    *slog.Logger
}

func NewLowStockHandler(threshold int, logger *slog.Logger) *LowStockHandler {
	return &LowStockHandler{
		threshold: threshold,
		logger:    logger,
	}
}

func (h *LowStockHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.ProductReservedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal product reserved event: %w", err)
	}

	if event.Remaining < 0 {
		// Publisher could not read availability; nothing to judge.
		h.logger.Debug("reservation event without availability", "product_id", event.ProductID)
		return nil
	}

	if event.Remaining < h.threshold {
		h.logger.Warn("product stock running low",
			"product_id", event.ProductID,
			"remaining", event.Remaining,
			"threshold", h.threshold,
			"order_id", event.OrderID)
		return nil
	}

	h.logger.Info("reservation observed",
		"product_id", event.ProductID,
		"quantity", event.Quantity,
		"remaining", event.Remaining)
	return nil
}
