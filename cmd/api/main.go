// Command api serves the decision map HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"decisionmap/infrastructure/config"
	"decisionmap/infrastructure/di"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("api: %v", err)
	}
	log.Println("Server stopped")
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger
	defer func() { _ = logger.Sync() }()

	// one build may spend three model timeouts before answering
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           container.Router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      3*cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("llm", container.LLM.Name()),
			zap.String("history", cfg.HistoryBackend),
			zap.Bool("metrics", cfg.EnableMetrics),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...", zap.Duration("grace", shutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
