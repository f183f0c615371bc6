package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ordersys/stockreserve/internal/messaging"
	"github.com/ordersys/stockreserve/internal/telemetry"
	"github.com/ordersys/stockreserve/internal/worker"
)

const defaultLowStockThreshold = 10

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "stockreserve-worker", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	threshold := defaultLowStockThreshold
	if raw := os.Getenv("LOW_STOCK_THRESHOLD"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			logger.Error("LOW_STOCK_THRESHOLD must be a non-negative integer", "value", raw)
			os.Exit(1)
		}
	}

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, messaging.TopicProductReserved, "stock-alerts")
	defer func() { _ = consumer.Close() }()

	handler := worker.NewLowStockHandler(threshold, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting low stock worker", "brokers", brokers, "threshold", threshold)

	if err := consumer.Consume(runCtx, handler.Handle); err != nil {
		if runCtx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
