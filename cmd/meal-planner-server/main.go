package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"care-meal-planner/internal/app"
	"care-meal-planner/internal/config"
	"care-meal-planner/internal/httpapi"
	"care-meal-planner/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		logging.New("info", "json").Fatal("failed to load config", zap.Error(err))
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	api, err := httpapi.NewServer(httpapi.Config{
		Generator: a.Service,
		Plans:     a.Plans,
		Progress:  a.Tracker,
		Health:    a.Health,
		Metrics:   a.Collector.Handler(),
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// The write timeout must outlast the slowest generation.
	writeTimeout := max(cfg.FastTimeout, cfg.StableTimeout) + 30*time.Second
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("meal planner server listening", zap.String("addr", cfg.HTTPAddr), zap.String("backend", cfg.LLMBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return err
	}

	logger.Info("server exiting")
	return nil
}
