package quality

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/universe"
)

// Gate measures how many screened assets have a value for each query input
type Gate struct {
	provider contracts.DataProvider
	config   Config
}

// Config holds coverage thresholds
type Config struct {
	MinCoverage float64            `yaml:"min_coverage"` // default for every field
	Fields      map[string]float64 `yaml:"fields"`       // per-field override (qualified name)
}

// DefaultConfig requires 80% coverage on every input field
var DefaultConfig = Config{MinCoverage: 0.80}

// Threshold returns the minimum coverage for a field
func (c Config) Threshold(field contracts.Field) float64 {
	if min, ok := c.Fields[field.QualifiedName()]; ok {
		return min
	}
	return c.MinCoverage
}

// Snapshot is the coverage of one session
type Snapshot struct {
	Date     time.Time          `json:"date"`
	Universe int                `json:"universe"` // 스크린 통과 종목 수
	Coverage map[string]float64 `json:"coverage"` // field -> 0.0 ~ 1.0
	Score    float64            `json:"score"`    // 필드 평균
	Failing  []string           `json:"failing,omitempty"`
}

// IsValid reports whether every field met its threshold
func (s *Snapshot) IsValid() bool {
	return s.Universe > 0 && len(s.Failing) == 0
}

// NewGate creates a new coverage gate
func NewGate(provider contracts.DataProvider, config Config) *Gate {
	return &Gate{
		provider: provider,
		config:   config,
	}
}

// Check screens the universe for date and measures the latest-value coverage of
// every field the query reads
// ⭐ SSOT: 실행 전 데이터 커버리지 검증
func (g *Gate) Check(ctx context.Context, q *contracts.Query, date time.Time) (*Snapshot, error) {
	membership, err := universe.Screen(ctx, g.provider, q.Screen, date)
	if err != nil {
		return nil, fmt.Errorf("screen universe: %w", err)
	}

	snapshot := &Snapshot{
		Date:     date,
		Universe: membership.Count(),
		Coverage: make(map[string]float64),
	}

	fields := q.Columns.Fields()
	for _, field := range fields {
		cov := 0.0
		if membership.Count() > 0 {
			cov, err = g.coverage(ctx, field, date, membership.Assets)
			if err != nil {
				return nil, fmt.Errorf("check %s coverage: %w", field, err)
			}
		}

		name := field.QualifiedName()
		snapshot.Coverage[name] = cov
		snapshot.Score += cov
		if cov < g.config.Threshold(field) {
			snapshot.Failing = append(snapshot.Failing, name)
		}
	}

	if len(fields) > 0 {
		snapshot.Score /= float64(len(fields))
	}
	sort.Strings(snapshot.Failing)

	return snapshot, nil
}

// coverage returns the share of assets with a finite value on date
func (g *Gate) coverage(ctx context.Context, field contracts.Field, date time.Time, assets []string) (float64, error) {
	w, err := g.provider.Window(ctx, field, date, 1, assets)
	if err != nil {
		return 0, err
	}

	present := 0
	for _, v := range w.Latest() {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			present++
		}
	}
	return float64(present) / float64(len(assets)), nil
}
