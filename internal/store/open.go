package store

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/pkg/config"
	"github.com/wonny/aegis-research/pkg/database"
)

// Backend is a readable and seedable store
type Backend interface {
	contracts.DataProvider
	Sink
}

// Open creates the backend selected by STORE_BACKEND. The returned func releases it.
// ⭐ SSOT: 저장소 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config) (Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return NewMemoryProvider(StandardFields...), func() {}, nil

	case config.StoreBadger:
		p, err := OpenBadger(cfg.Store.BadgerPath, StandardFields...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		p, err := NewPostgresProvider(ctx, db.Pool, StandardFields...)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return p, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
