package commands

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/research"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/pkg/config"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

// app holds the wiring shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	backend store.Backend
	redis   *redis.Client
	service *research.Service
	closers []func()
}

// loadConfig reads env config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	// 검증 전에 적용해야 --store memory 가 DATABASE_URL 없이 동작
	cfg, err := config.LoadWithOverrides(config.Overrides{
		Env:          env,
		StoreBackend: storeBackend,
		ConfigPath:   queryFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// loadQuery reads the query YAML (or the built-in query) and applies env overrides
func loadQuery(cfg *config.Config) (*researchconfig.Config, error) {
	base, err := researchconfig.LoadOrDefault(cfg.Research.ConfigPath)
	if err != nil {
		return nil, err
	}
	return base.WithOverrides(cfg.Research.Industry, cfg.Research.Quarters), nil
}

// bootstrap opens the configured store. When backend is non-nil it is used instead.
func bootstrap(ctx context.Context, backend store.Backend) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger.New(cfg)}

	if backend == nil {
		var closeStore func()
		backend, closeStore, err = store.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
		}
		a.closers = append(a.closers, closeStore)
	}
	a.backend = backend

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 캐시 없이 진행
		a.log.WithError(err).Warn("Redis unavailable, caching disabled")
		a.redis = redis.Disabled()
	}
	a.closers = append(a.closers, func() { _ = a.redis.Close() })

	base, err := loadQuery(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var provider contracts.DataProvider = backend
	if a.redis.Enabled() && cfg.Store.CacheTTL > 0 {
		provider = store.NewCachedProvider(backend, redis.NewCache(a.redis, "research"), cfg.Store.CacheTTL, a.log)
	}
	resultCache := redis.NewCache(a.redis, "research")
	a.service = research.NewService(provider, base, resultCache, redis.TTLDaily, a.log)

	a.log.WithFields(map[string]interface{}{
		"store":    cfg.Store.Backend,
		"redis":    a.redis.Enabled(),
		"query":    base.Meta.QueryID,
		"industry": base.Universe.Industry,
		"quarters": base.History.Quarters,
	}).Debug("Application initialized")

	return a, nil
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
