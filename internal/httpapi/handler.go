package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ordersys/stockreserve/internal/domain"
	"github.com/ordersys/stockreserve/internal/messaging"
	"github.com/ordersys/stockreserve/internal/reservation"
)

// Reserver is the reservation use case consumed by the boundary.
type Reserver interface {
	AddProductToOrder(ctx context.Context, orderID, productID int64, quantity int) (*domain.OrderLine, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

type OrderLineReader interface {
	ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
}

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

type Handler struct {
	reserver     Reserver
	orders       OrderReader
	lines        OrderLineReader
	products     ProductReader
	producer     *messaging.Producer
	logger       *slog.Logger
	reservations metric.Int64Counter
}

func NewHandler(reserver Reserver, orders OrderReader, lines OrderLineReader, products ProductReader, producer *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("httpapi")
	reservations, err := meter.Int64Counter("reservations.total",
		metric.WithDescription("Reservation attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		reserver:     reserver,
		orders:       orders,
		lines:        lines,
		products:     products,
		producer:     producer,
		logger:       logger,
		reservations: reservations,
	}, nil
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || orderID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		h.writeError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}
	if req.Quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	line, err := h.reserver.AddProductToOrder(r.Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeReservationError(w, r, orderID, req, err)
		return
	}

	h.countReservation(r.Context(), "success")

	if h.producer != nil {
		event := domain.ProductReservedEvent{
			OrderID:   line.OrderID,
			ProductID: line.ProductID,
			Quantity:  req.Quantity,
			Remaining: h.remainingAvailability(r.Context(), line.ProductID),
			Timestamp: time.Now().UTC(),
		}
		key := strconv.FormatInt(line.ProductID, 10)
		if err := h.producer.Publish(r.Context(), key, event); err != nil {
			h.logger.Error("failed to publish product reserved event", "error", err,
				"order_id", line.OrderID, "product_id", line.ProductID,
				"request_id", RequestIDFrom(r.Context()))
		}
	}

	h.logger.Info("product added to order", "order_id", line.OrderID,
		"product_id", line.ProductID, "quantity", req.Quantity,
		"request_id", RequestIDFrom(r.Context()))
	h.writeJSON(w, http.StatusOK, line)
}

func (h *Handler) writeReservationError(w http.ResponseWriter, r *http.Request, orderID int64, req addItemRequest, err error) {
	var insufficient *reservation.InsufficientStockError

	switch {
	case errors.Is(err, reservation.ErrOrderNotFound):
		h.countReservation(r.Context(), "order_not_found")
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, reservation.ErrProductNotFound):
		h.countReservation(r.Context(), "product_not_found")
		h.writeError(w, http.StatusNotFound, "product not found")
	case errors.As(err, &insufficient):
		h.countReservation(r.Context(), "insufficient_stock")
		h.writeError(w, http.StatusBadRequest, insufficient.Error())
	case errors.Is(err, reservation.ErrInvalidQuantity):
		h.countReservation(r.Context(), "invalid_quantity")
		h.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
	default:
		h.countReservation(r.Context(), "internal")
		h.logger.Error("reservation failed", "error", err, "order_id", orderID,
			"product_id", req.ProductID, "quantity", req.Quantity,
			"request_id", RequestIDFrom(r.Context()))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// remainingAvailability is best effort for the event payload; a read
// failure degrades to -1 rather than failing the reservation.
func (h *Handler) remainingAvailability(ctx context.Context, productID int64) int {
	product, err := h.products.GetByID(ctx, productID)
	if err != nil || product == nil {
		return -1
	}
	return product.Available()
}

type orderResponse struct {
	domain.Order
	Items []domain.OrderLine `json:"items"`
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || orderID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	items, err := h.lines.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to list order items", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{Order: *order, Items: items})
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || productID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) countReservation(ctx context.Context, outcome string) {
	h.reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
