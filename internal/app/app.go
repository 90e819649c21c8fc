// Package app assembles the store, caches and services shared by the API
// server and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/cache"
	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/repository"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/style"
)

// App holds the wired services. Close releases the store and cache.
type App struct {
	Store *repository.Store
	Chat  *chat.Service

	closers []func() error
}

// New opens the sqlite store, connects the style cache and compiles the
// generation chains.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := repository.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	store := repository.NewStore(db)
	a := &App{Store: store, closers: []func() error{store.Close}}

	styleCache := newStyleCache(ctx, cfg.Redis, log)
	if closer, ok := styleCache.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	gen, err := ai.NewService(ctx, cfg.AI, log)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init generation client: %w", err)
	}

	resolver := style.NewResolver(store, styleCache, cfg.Redis.StyleTTL, log)
	a.Chat = chat.NewService(store, gen, resolver, chat.Options{
		HistoryLimit:  cfg.AI.HistoryLimit,
		RequireReview: cfg.Approval.RequiresReview(),
	}, log)

	log.Info("services initialized",
		zap.String("db", cfg.Database.Path),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("approval_mode", string(cfg.Approval.Mode)),
	)
	return a, nil
}

// newStyleCache prefers redis and falls back to an in-process cache when it
// is not configured or unreachable.
func newStyleCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) cache.Cache {
	if !cfg.Enabled() {
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, using in-memory style cache", zap.String("addr", cfg.Addr), zap.Error(err))
		return cache.NewMemoryCache()
	}
	return rc
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
