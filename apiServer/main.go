package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/pkg/app"
	"gitlab.connectwisedev.com/cars-service/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if loaded, err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	} else if loaded {
		log.Printf("Loaded environment from %s", config.LocalEnvFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting IKUL Cars API",
		zap.Int("port", cfg.ServerPort),
		zap.String("store", cfg.StoreDriver),
		zap.String("log_level", cfg.LogLevel),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(startCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("Server stopped unexpectedly", zap.Error(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	if err := a.Close(ctx); err != nil {
		logger.Error("Error closing connections", zap.Error(err))
	}

	logger.Info("Server exited")
	return serveErr
}
