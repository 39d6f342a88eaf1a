package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/internal/quality"
	"github.com/wonny/aegis-research/internal/research"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

func newJob(t *testing.T, now time.Time) *ResearchJob {
	t.Helper()
	p := store.NewMemoryProvider(store.StandardFields...)
	date := time.Date(2017, 7, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.SaveValues(context.Background(), []store.Observation{
		{Date: date, Asset: "AAL", Field: universe.IndustryCodeField, Value: 31053108},
	}))
	require.NoError(t, p.SaveLiquidity(context.Background(), []store.LiquidFlag{
		{Date: date, Asset: "AAL", Liquid: true},
	}))

	svc := research.NewService(p, researchconfig.Default(), redis.NewCache(redis.Disabled(), "test"), time.Hour, logger.Nop())
	job := NewResearchJob(svc, quality.NewGate(p, quality.DefaultConfig), "0 30 18 * * 1-5", logger.Nop())
	job.now = func() time.Time { return now }
	return job
}

func TestResearchJob_Run(t *testing.T) {
	job := newJob(t, time.Date(2017, 7, 27, 18, 30, 0, 0, time.UTC))

	assert.Equal(t, "industry_research", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
}

func TestResearchJob_NoSession(t *testing.T) {
	job := newJob(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, research.ErrNoSession)
}
