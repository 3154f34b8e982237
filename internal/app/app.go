// Package app wires configuration into a ready-to-use meal-plan service.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"care-meal-planner/internal/config"
	"care-meal-planner/internal/database"
	"care-meal-planner/internal/kvstore"
	"care-meal-planner/internal/llm"
	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/patient"
	"care-meal-planner/internal/planner"
	"care-meal-planner/internal/progress"
	"care-meal-planner/internal/ratelimit"
	"care-meal-planner/internal/storage"
	"care-meal-planner/internal/telegram"

	"go.uber.org/zap"
)

// App holds the application's dependencies.
type App struct {
	Service   *Service
	DB        *database.DB
	Patients  *patient.Repository
	Plans     *planner.PlanRepository
	Metrics   *metrics.Store
	Collector *metrics.Collector
	Tracker   *progress.Tracker
	Health    *metrics.HealthChecker
	Archive   *storage.PlanStore
	// Notifier is nil unless a Telegram token is configured.
	Notifier *telegram.Notifier

	cfg     *config.Config
	closers []func() error
}

// New builds every dependency from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg}

	client, err := newModelClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(llm.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	store, err := newKVStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	archive, err := storage.NewPlanStore(cfg.PlanArchivePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Archive = archive

	gen, err := planner.NewGenerator(client, planner.GeneratorConfig{
		FastTimeout:   cfg.FastTimeout,
		StableTimeout: cfg.StableTimeout,
		MaxTokens:     cfg.MaxTokens,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Patients = patient.NewRepository(db.SQL)
	a.Plans = planner.NewPlanRepository(db.SQL)
	a.Metrics = metrics.NewStore(db.SQL)
	a.Collector = metrics.NewCollector()
	a.Tracker = progress.NewTracker(store, cfg.ProgressTTL, logger)
	a.Health = metrics.NewHealthChecker(filepath.Dir(cfg.DatabasePath), db.SQL)

	deps := Deps{
		Generator: gen,
		Patients:  a.Patients,
		Sink:      a.Plans,
		Limiter: ratelimit.New(store, ratelimit.Config{
			PerUser:   cfg.RateLimitPerHour,
			PerMinute: cfg.GlobalRatePerMinute,
		}),
		Tracker:   a.Tracker,
		Usage:     a.Metrics,
		Collector: a.Collector,
		Archive:   archive,
		Logger:    logger,
	}

	if cfg.TelegramBotToken != "" {
		n, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			a.Notifier = n
			deps.Notifier = n
			a.closers = append(a.closers, func() error { n.Wait(); return nil })
		}
	}

	svc, err := NewService(deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc
	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

func newModelClient(ctx context.Context, cfg *config.Config) (llm.ModelClient, error) {
	switch cfg.LLMBackend {
	case config.BackendGemini:
		return llm.NewGeminiClient(ctx, cfg)
	case config.BackendGroq, "":
		return llm.NewGroqClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM backend %q", cfg.LLMBackend)
	}
}

func newKVStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kvstore.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory ttl store")
		return kvstore.NewMemoryStore(nil), nil
	}
	store, err := kvstore.NewRedisStore(ctx, cfg.RedisAddr, "mealplanner:")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("using redis ttl store", zap.String("addr", cfg.RedisAddr))
	return store, nil
}
