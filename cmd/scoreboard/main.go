package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scoresync/internal/backend"
	"scoresync/internal/config"
	"scoresync/internal/metrics"
	"scoresync/internal/scoreboard"
	"scoresync/internal/scoring"
	"scoresync/internal/store"
	"scoresync/internal/transport"
)

func gracefulShutdown(ctrl *scoring.Controller, httpServer *http.Server, logger *slog.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ctrl.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shut down", "error", err)
	}

	done <- true
}

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	rec, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.MetricsEnabled,
		ServiceName:  "scoresync-scoreboard",
		OtlpEndpoint: cfg.OtlpEndpoint,
		OtlpInsecure: cfg.OtlpInsecure,
	})
	if err != nil {
		logger.Error("metrics setup failed", "error", err)
		os.Exit(1)
	}

	st := store.New()
	api := backend.NewClient(backend.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Metrics:    rec,
	})

	// The scoreboard only watches: no referee actions, but the same sync
	// pipeline keeps its store current.
	ctrl := scoring.NewController(scoring.Config{
		Backend:       api,
		Store:         st,
		Logger:        logger,
		PendingExpiry: cfg.PendingExpiry,
	})

	sock := transport.NewClient(transport.Config{
		Endpoint:             cfg.SocketURL,
		MaxReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectInterval:    cfg.ReconnectInterval,
		Logger:               logger,
		Metrics:              rec,
	}, ctrl.SocketHandlers())
	ctrl.BindSocket(sock)

	ctrl.Run(ctx)

	board := scoreboard.NewServer(st, sock, rec)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      board.Routes(metricsHandler),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(ctrl, httpServer, logger, done)

	logger.Info("scoreboard listening", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}

	<-done
	if err := shutdownMetrics(context.Background()); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}
	logger.Info("graceful shutdown complete")
}
