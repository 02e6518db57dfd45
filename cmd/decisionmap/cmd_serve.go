package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"decisionmap/infrastructure/config"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default: SERVER_ADDRESS)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := loadContainer(ctx, func(cfg *config.Config) {
		if serveFlags.addr != "" {
			cfg.ServerAddress = serveFlags.addr
		}
	})
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := container.Config
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3*cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		container.Logger.Info("Starting server", zap.String("address", cfg.ServerAddress))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	container.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
