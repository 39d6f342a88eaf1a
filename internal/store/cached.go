package store

import (
	"context"
	"math"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

// CachedProvider caches history windows in Redis.
// Catalog, universe and calendar calls pass through.
type CachedProvider struct {
	contracts.DataProvider

	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps a provider. A disabled cache or ttl <= 0 disables caching.
func NewCachedProvider(inner contracts.DataProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		DataProvider: inner,
		cache:        cache,
		ttl:          ttl,
		logger:       log.WithComponent("window_cache"),
	}
}

// cachedWindow is the JSON form of a window (NaN -> null)
type cachedWindow struct {
	Assets []string     `json:"assets"`
	Values [][]*float64 `json:"values"`
}

func toCached(w contracts.Window) cachedWindow {
	values := make([][]*float64, len(w.Values))
	for i, row := range w.Values {
		out := make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			out[j] = &v
		}
		values[i] = out
	}
	return cachedWindow{Assets: w.Assets, Values: values}
}

func (c cachedWindow) window(field contracts.Field) contracts.Window {
	w := contracts.NewWindow(field, c.Assets, len(c.Values))
	for i, row := range c.Values {
		for j, v := range row {
			if v != nil {
				w.Values[i][j] = *v
			}
		}
	}
	return w
}

// Window implements contracts.HistoryLoader
func (p *CachedProvider) Window(ctx context.Context, field contracts.Field, asOf time.Time, length int, assets []string) (contracts.Window, error) {
	if p.cache == nil || !p.cache.Enabled() || p.ttl <= 0 {
		return p.DataProvider.Window(ctx, field, asOf, length, assets)
	}

	key := redis.WindowKey(field.QualifiedName(), day(asOf).Format("2006-01-02"), length, assets)

	var hit cachedWindow
	found, err := p.cache.Get(ctx, key, &hit)
	if err != nil {
		p.logger.WithError(err).Warn("window cache read failed")
	}
	if found && sameAssets(hit.Assets, assets) && len(hit.Values) == length {
		return hit.window(field), nil
	}

	w, err := p.DataProvider.Window(ctx, field, asOf, length, assets)
	if err != nil {
		return contracts.Window{}, err
	}

	if err := p.cache.Set(ctx, key, toCached(w), p.ttl); err != nil {
		// 캐시 실패는 조회를 막지 않음
		p.logger.WithError(err).Warn("window cache write failed")
	}
	return w, nil
}

func sameAssets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
