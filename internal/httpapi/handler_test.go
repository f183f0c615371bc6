package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ordersys/stockreserve/internal/domain"
	"github.com/ordersys/stockreserve/internal/reservation"
)

type fakeReserver struct {
	line *domain.OrderLine
	err  error

	gotOrderID   int64
	gotProductID int64
	gotQuantity  int
}

func (f *fakeReserver) AddProductToOrder(ctx context.Context, orderID, productID int64, quantity int) (*domain.OrderLine, error) {
	f.gotOrderID = orderID
	f.gotProductID = productID
	f.gotQuantity = quantity
	if f.err != nil {
		return nil, f.err
	}
	return f.line, nil
}

type fakeOrders struct {
	order *domain.Order
	err   error
}

func (f *fakeOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return f.order, f.err
}

type fakeLines struct {
	lines []domain.OrderLine
	err   error
}

func (f *fakeLines) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	return f.lines, f.err
}

type fakeProducts struct {
	product *domain.Product
	list    []domain.Product
	err     error
}

func (f *fakeProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProducts) List(ctx context.Context) ([]domain.Product, error) {
	return f.list, f.err
}

func newTestHandler(t *testing.T, reserver Reserver, orders OrderReader, lines OrderLineReader, products ProductReader) *Handler {
	t.Helper()
	handler, err := NewHandler(reserver, orders, lines, products, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return handler
}

func addItemMux(handler *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/{id}/items", handler.HandleAddItem)
	return mux
}

func TestHandler_HandleAddItem(t *testing.T) {
	t.Run("returns the reserved line", func(t *testing.T) {
		line := &domain.OrderLine{
			ID:          7,
			OrderID:     1,
			ProductID:   2,
			ProductName: "Widget",
			UnitPrice:   1500,
			Quantity:    5,
			CreatedAt:   time.Now().UTC(),
			IsActive:    true,
		}
		reserver := &fakeReserver{line: line}
		handler := newTestHandler(t, reserver, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

		req := httptest.NewRequest(http.MethodPost, "/orders/1/items",
			strings.NewReader(`{"product_id": 2, "quantity": 5}`))
		rec := httptest.NewRecorder()
		addItemMux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var got domain.OrderLine
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.ID != 7 || got.Quantity != 5 || got.UnitPrice != 1500 {
			t.Errorf("unexpected line: %+v", got)
		}

		if reserver.gotOrderID != 1 || reserver.gotProductID != 2 || reserver.gotQuantity != 5 {
			t.Errorf("unexpected call args: order=%d product=%d quantity=%d",
				reserver.gotOrderID, reserver.gotProductID, reserver.gotQuantity)
		}
	})

	t.Run("maps error kinds to status codes", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{"order not found", fmt.Errorf("%w: 1", reservation.ErrOrderNotFound), http.StatusNotFound},
			{"product not found", fmt.Errorf("%w: 2", reservation.ErrProductNotFound), http.StatusNotFound},
			{"insufficient stock", &reservation.InsufficientStockError{ProductID: 2, Available: 2, Requested: 4}, http.StatusBadRequest},
			{"internal", &reservation.InternalError{Err: errors.New("boom")}, http.StatusInternalServerError},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				handler := newTestHandler(t, &fakeReserver{err: tc.err}, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

				req := httptest.NewRequest(http.MethodPost, "/orders/1/items",
					strings.NewReader(`{"product_id": 2, "quantity": 4}`))
				rec := httptest.NewRecorder()
				addItemMux(handler).ServeHTTP(rec, req)

				if rec.Code != tc.wantStatus {
					t.Errorf("expected status %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
				}
			})
		}
	})

	t.Run("insufficient stock message carries counts", func(t *testing.T) {
		err := &reservation.InsufficientStockError{ProductID: 2, Available: 2, Requested: 4}
		handler := newTestHandler(t, &fakeReserver{err: err}, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

		req := httptest.NewRequest(http.MethodPost, "/orders/1/items",
			strings.NewReader(`{"product_id": 2, "quantity": 4}`))
		rec := httptest.NewRecorder()
		addItemMux(handler).ServeHTTP(rec, req)

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.Contains(resp["error"], "available 2") || !strings.Contains(resp["error"], "requested 4") {
			t.Errorf("expected counts in message, got %q", resp["error"])
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := []struct {
			name string
			path string
			body string
		}{
			{"invalid body", "/orders/1/items", `not json`},
			{"zero quantity", "/orders/1/items", `{"product_id": 2, "quantity": 0}`},
			{"negative quantity", "/orders/1/items", `{"product_id": 2, "quantity": -1}`},
			{"missing product id", "/orders/1/items", `{"quantity": 3}`},
			{"non-numeric order id", "/orders/abc/items", `{"product_id": 2, "quantity": 3}`},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				reserver := &fakeReserver{}
				handler := newTestHandler(t, reserver, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

				req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
				rec := httptest.NewRecorder()
				addItemMux(handler).ServeHTTP(rec, req)

				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected status 400, got %d", rec.Code)
				}
				if reserver.gotQuantity != 0 {
					t.Error("expected reserver not to be called")
				}
			})
		}
	})
}

func TestHandler_HandleGetOrder(t *testing.T) {
	t.Run("returns order with items", func(t *testing.T) {
		order := &domain.Order{ID: 1, CustomerID: 10, Status: domain.OrderStatusNew}
		lines := []domain.OrderLine{{ID: 7, OrderID: 1, ProductID: 2, Quantity: 3, IsActive: true}}
		handler := newTestHandler(t, &fakeReserver{}, &fakeOrders{order: order}, &fakeLines{lines: lines}, &fakeProducts{})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /orders/{id}", handler.HandleGetOrder)

		req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var resp struct {
			ID    int64              `json:"id"`
			Items []domain.OrderLine `json:"items"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != 1 || len(resp.Items) != 1 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("returns 404 for unknown order", func(t *testing.T) {
		handler := newTestHandler(t, &fakeReserver{}, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /orders/{id}", handler.HandleGetOrder)

		req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGetProduct(t *testing.T) {
	t.Run("returns the product", func(t *testing.T) {
		product := &domain.Product{ID: 2, Name: "Widget", Price: 1500, Stock: 10, Reserved: 3, IsActive: true}
		handler := newTestHandler(t, &fakeReserver{}, &fakeOrders{}, &fakeLines{}, &fakeProducts{product: product})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /products/{id}", handler.HandleGetProduct)

		req := httptest.NewRequest(http.MethodGet, "/products/2", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var got domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.ID != 2 || got.Stock != 10 || got.Reserved != 3 {
			t.Errorf("unexpected product: %+v", got)
		}
	})

	t.Run("returns 404 for unknown product", func(t *testing.T) {
		handler := newTestHandler(t, &fakeReserver{}, &fakeOrders{}, &fakeLines{}, &fakeProducts{})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /products/{id}", handler.HandleGetProduct)

		req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestWithRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		var seen string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		rec := httptest.NewRecorder()
		WithRequestID(inner).ServeHTTP(rec, req)

		if seen == "" {
			t.Error("expected a generated request id in context")
		}
		if rec.Header().Get("X-Request-ID") != seen {
			t.Errorf("expected header %q to match context id %q", rec.Header().Get("X-Request-ID"), seen)
		}
	})

	t.Run("honors the incoming header", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		WithRequestID(inner).ServeHTTP(rec, req)

		if rec.Header().Get("X-Request-ID") != "req-123" {
			t.Errorf("expected req-123, got %q", rec.Header().Get("X-Request-ID"))
		}
	})
}
