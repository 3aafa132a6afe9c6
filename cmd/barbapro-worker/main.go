package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"barbapro/internal/amqp"
	"barbapro/internal/books"
	gbooks "barbapro/internal/books/google"
	membooks "barbapro/internal/books/memory"
	"barbapro/internal/broadcast"
	"barbapro/internal/config"
	"barbapro/internal/log"
	"barbapro/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentWorker})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the bookkeeping worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writer books.EntryWriter
	switch cfg.BooksBackend {
	case "sheets":
		client, err := gbooks.NewFromEnv(ctx)
		if err != nil {
			logger.Error("google sheets client failed", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("bookkeeping backend ready", "backend", "sheets")
	default:
		writer = membooks.New()
		logger.Info("bookkeeping backend ready", "backend", "memory")
	}

	keeper := worker.NewBookkeeper(writer, logger)
	handler := func(event broadcast.Event) error {
		return keeper.HandleEvent(ctx, event)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("starting barbapro-worker",
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err := amqp.ConsumeEventsWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, handler)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
