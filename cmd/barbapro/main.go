package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"barbapro/internal/amqp"
	"barbapro/internal/archive"
	"barbapro/internal/broadcast"
	"barbapro/internal/config"
	apphttp "barbapro/internal/http"
	"barbapro/internal/ledger"
	"barbapro/internal/log"
)

func main() {
	// .env is for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	hub := broadcast.NewHub(logger)
	defer hub.Close()

	// The mutation service broadcasts to the in-process hub and, when
	// configured, mirrors every event onto AMQP for the bookkeeping
	// worker.
	var sink broadcast.Broadcaster = hub
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Error("amqp connection failed", "error", err, "exchange", cfg.AMQPExchange)
			os.Exit(1)
		}
		defer client.Close()
		sink = broadcast.Fanout{hub, amqp.NewPublisher(client)}
		logger.Info("amqp event bridge enabled", "exchange", cfg.AMQPExchange)
	}

	store := ledger.NewFileStore(cfg.LedgerFile, cfg.Barbers, logger)
	svc, err := ledger.NewService(store, sink, logger)
	if err != nil {
		logger.Error("ledger load failed", "error", err, log.FieldFile, cfg.LedgerFile)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	arch, err := archive.New(cfg.ArchiveDBPath, cfg.ArchiveRetention, logger)
	if err != nil {
		logger.Error("snapshot archive unavailable", "error", err, log.FieldFile, cfg.ArchiveDBPath)
		os.Exit(1)
	}
	defer arch.Close()
	go arch.Run(ctx, cfg.ArchiveInterval, svc.Snapshot)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:    ":" + cfg.Port,
		Ledger:  svc,
		Hub:     hub,
		Archive: arch,
		Logger:  logger,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting barbapro", "port", cfg.Port, "barbers", cfg.Barbers)
	if err := srv.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped")
}
