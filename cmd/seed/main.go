package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	_ "github.com/lib/pq"
)

// Development helper that fills the database with synthetic customers,
// products and open orders. Not intended for production environments.

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Leslie", "Radia"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Lamport", "Perlman"}
	nouns      = []string{"Widget", "Gadget", "Gizmo", "Sprocket", "Flange", "Bracket", "Coupler", "Spindle"}
	adjectives = []string{"Compact", "Heavy-Duty", "Premium", "Standard", "Foldable", "Reinforced", "Modular", "Slim"}
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	customers := flag.Int("customers", 20, "number of customers to create")
	products := flag.Int("products", 50, "number of products to create")
	orders := flag.Int("orders", 30, "number of open orders to create")
	lines := flag.Int("lines", 60, "number of order lines to create")
	flag.Parse()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	customerIDs, err := seedCustomers(ctx, db, *customers)
	if err != nil {
		logger.Error("failed to seed customers", "error", err)
		os.Exit(1)
	}

	productIDs, err := seedProducts(ctx, db, *products)
	if err != nil {
		logger.Error("failed to seed products", "error", err)
		os.Exit(1)
	}

	orderIDs, err := seedOrders(ctx, db, customerIDs, *orders)
	if err != nil {
		logger.Error("failed to seed orders", "error", err)
		os.Exit(1)
	}

	created, err := seedLines(ctx, db, orderIDs, productIDs, *lines)
	if err != nil {
		logger.Error("failed to seed order lines", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete",
		"customers", len(customerIDs),
		"products", len(productIDs),
		"orders", len(orderIDs),
		"lines", created)
}

func seedCustomers(ctx context.Context, db *sql.DB, n int) ([]int64, error) {
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		name := pick(firstNames) + " " + pick(lastNames)
		custType := "individual"
		if rand.Float64() < 0.3 {
			name += " Ltd"
			custType = "company"
		}
		email := fmt.Sprintf("customer%d@example.com", i+1)

		var id int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO customers (name, type, email)
			VALUES ($1, $2, $3)
			RETURNING id
		`, name, custType, email).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedProducts(ctx context.Context, db *sql.DB, n int) ([]int64, error) {
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		name := pick(adjectives) + " " + pick(nouns)
		price := int64(rand.IntN(49500) + 500)
		stock := rand.IntN(101)

		var id int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO products (name, description, price, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, name, "Synthetic catalog entry", price, stock).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedOrders(ctx context.Context, db *sql.DB, customerIDs []int64, n int) ([]int64, error) {
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		var id int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO orders (customer_id, status)
			VALUES ($1, 'new')
			RETURNING id
		`, pick(customerIDs)).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedLines reserves random quantities through the same invariants the
// service enforces: the line merge and the reserved increment happen in
// one transaction, and pairs without enough availability are skipped.
func seedLines(ctx context.Context, db *sql.DB, orderIDs, productIDs []int64, n int) (int, error) {
	created := 0
	for i := 0; i < n; i++ {
		orderID := pick(orderIDs)
		productID := pick(productIDs)
		quantity := rand.IntN(5) + 1

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return created, err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET reserved = reserved + $2, updated_at = NOW()
			WHERE id = $1 AND reserved + $2 <= stock
		`, productID, quantity)
		if err != nil {
			_ = tx.Rollback()
			return created, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return created, err
		}
		if affected == 0 {
			_ = tx.Rollback()
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			SELECT $1, id, name, price, $3 FROM products WHERE id = $2
			ON CONFLICT (order_id, product_id) WHERE is_active
			DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
		`, orderID, productID, quantity)
		if err != nil {
			_ = tx.Rollback()
			return created, err
		}

		if err := tx.Commit(); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func pick[T any](values []T) T {
	return values[rand.IntN(len(values))]
}
