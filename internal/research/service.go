package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/aegis-research/internal/assembler"
	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/engine"
	"github.com/wonny/aegis-research/internal/render"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

// ErrNoSession is returned when no trading session exists near the requested date
var ErrNoSession = errors.New("no trading session")

// sessionLookback bounds the search for the latest session (long holidays included)
const sessionLookback = 14 * 24 * time.Hour

// Request selects one run of the configured query
type Request struct {
	Date     time.Time // zero = latest session
	Industry string    // empty = configured industry
	Quarters int       // < 0 = configured depth
}

// Service assembles and runs the research query, caching rendered results
// ⭐ SSOT: CLI / API / 스케줄러가 공유하는 실행 경로
type Service struct {
	provider  contracts.DataProvider
	base      *researchconfig.Config
	assembler *assembler.Assembler
	executor  *engine.Executor
	cache     *redis.Cache
	ttl       time.Duration
	logger    *logger.Logger
}

// NewService creates a new research service. A disabled cache makes every request a fresh run.
func NewService(provider contracts.DataProvider, base *researchconfig.Config, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		provider:  provider,
		base:      base,
		assembler: assembler.New(provider, log),
		executor:  engine.New(provider, log),
		cache:     cache,
		ttl:       ttl,
		logger:    log.WithComponent("research"),
	}
}

// Config returns the base research config
func (s *Service) Config() *researchconfig.Config {
	return s.base
}

// Query assembles the base config with overrides applied
func (s *Service) Query(industry string, quarters int) (*contracts.Query, error) {
	return s.assembler.Build(s.base.WithOverrides(industry, quarters))
}

// Run executes a query over [start, end] without touching the cache
func (s *Service) Run(ctx context.Context, q *contracts.Query, start, end time.Time) (*contracts.ResultTable, error) {
	return s.executor.Run(ctx, q, start, end)
}

// LatestSession returns the last trading session on or before asOf
func (s *Service) LatestSession(ctx context.Context, asOf time.Time) (time.Time, error) {
	sessions, err := s.provider.Sessions(ctx, asOf.Add(-sessionLookback), asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("get sessions: %w", err)
	}
	if len(sessions) == 0 {
		return time.Time{}, fmt.Errorf("%w on or before %s", ErrNoSession, asOf.Format("2006-01-02"))
	}
	return sessions[len(sessions)-1], nil
}

// Result returns the single-session result for the request, from cache when present.
// The bool reports a cache hit.
func (s *Service) Result(ctx context.Context, req Request) (*contracts.ResultTable, bool, error) {
	q, err := s.Query(req.Industry, req.Quarters)
	if err != nil {
		return nil, false, err
	}

	date := req.Date
	if date.IsZero() {
		date, err = s.LatestSession(ctx, time.Now().UTC())
		if err != nil {
			return nil, false, err
		}
	}

	key := redis.ResultKey(q.ConfigHash, date.Format("2006-01-02"))
	if table, ok := s.cached(ctx, key); ok {
		return table, true, nil
	}

	table, err := s.executor.Run(ctx, q, date, date)
	if err != nil {
		return nil, false, err
	}
	s.store(ctx, table, key)
	return table, false, nil
}

// Publish stores a result under its date key and as the latest result for its config
func (s *Service) Publish(ctx context.Context, table *contracts.ResultTable) error {
	if !s.cache.Enabled() {
		return nil
	}

	doc := render.NewDocument(table)
	if err := s.cache.Set(ctx, redis.ResultKey(table.ConfigHash, doc.End), doc, s.ttl); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	if err := s.cache.Set(ctx, redis.LatestResultKey(table.ConfigHash), doc, s.ttl); err != nil {
		return fmt.Errorf("cache latest result: %w", err)
	}
	return nil
}

// Latest returns the most recently published result for a config hash
func (s *Service) Latest(ctx context.Context, configHash string) (*contracts.ResultTable, bool) {
	return s.cached(ctx, redis.LatestResultKey(configHash))
}

func (s *Service) cached(ctx context.Context, key string) (*contracts.ResultTable, bool) {
	var doc render.Document
	hit, err := s.cache.Get(ctx, key, &doc)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Result cache read failed")
		return nil, false
	}
	if !hit {
		return nil, false
	}

	table, err := doc.Table()
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cached result is unreadable")
		return nil, false
	}
	return table, true
}

func (s *Service) store(ctx context.Context, table *contracts.ResultTable, key string) {
	if err := s.cache.Set(ctx, key, render.NewDocument(table), s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Result cache write failed")
	}
}
