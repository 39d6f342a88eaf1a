package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/internal/api/handlers"
	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/render"
	"github.com/wonny/aegis-research/internal/research"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/internal/scheduler"
	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

var session = time.Date(2017, 7, 26, 0, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, perSec float64, burst int) http.Handler {
	t.Helper()
	p := store.NewMemoryProvider(store.StandardFields...)
	ctx := context.Background()

	pe := contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"}
	require.NoError(t, p.SaveValues(ctx, []store.Observation{
		{Date: session, Asset: "AAL", Field: universe.IndustryCodeField, Value: 31053108},
		{Date: session, Asset: "NVDA", Field: universe.IndustryCodeField, Value: 31169147},
		{Date: session, Asset: "AAL", Field: pe, Value: 12.5},
	}))
	require.NoError(t, p.SaveLiquidity(ctx, []store.LiquidFlag{
		{Date: session, Asset: "AAL", Liquid: true},
		{Date: session, Asset: "NVDA", Liquid: true},
	}))

	client := redis.Disabled()
	svc := research.NewService(p, researchconfig.Default(), redis.NewCache(client, "test"), time.Hour, logger.Nop())

	return NewRouter(RouterDeps{
		Research:    handlers.NewResearchHandler(svc, logger.Nop()),
		Jobs:        handlers.NewJobsHandler(scheduler.New(logger.Nop())),
		RateLimiter: redis.NewRateLimiter(client, "test"),
		RatePerSec:  perSec,
		RateBurst:   burst,
		Logger:      logger.Nop(),
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newRouter(t, 100, 100), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIndustries(t *testing.T) {
	rec := get(t, newRouter(t, 100, 100), "/api/industries")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Default    string              `json:"default"`
		Industries []universe.Industry `json:"industries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "airline", body.Default)
	assert.Len(t, body.Industries, 2)
}

func TestColumns(t *testing.T) {
	h := newRouter(t, 100, 100)

	rec := get(t, h, "/api/columns?quarters=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.ColumnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Columns, 9)
	assert.Equal(t, "_pe_ratio", body.Columns[1].Name)
	assert.Equal(t, "point_in_time", body.Columns[1].Kind)
	assert.Equal(t, []string{"valuation_ratios.pe_ratio"}, body.Columns[1].Inputs)
	assert.Equal(t, "ratio", body.Columns[2].Kind)
	assert.Equal(t, "revenue_growth_Q00", body.Columns[4].Name)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown industry", "/api/columns?industry=shipping", http.StatusBadRequest},
		{"negative quarters", "/api/columns?quarters=-2", http.StatusBadRequest},
		{"non numeric quarters", "/api/columns?quarters=abc", http.StatusBadRequest},
		{"quarters above the cap", "/api/columns?quarters=100", http.StatusBadRequest},
		{"huge quarters", "/api/columns?quarters=50000000", http.StatusBadRequest},
		{"overflowing quarters", "/api/columns?quarters=288230376151711744", http.StatusBadRequest},
		{"deepest history", "/api/columns?quarters=99", http.StatusOK},
		{"semiconductor", "/api/columns?industry=semiconductor", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(t, h, tt.target).Code)
		})
	}
}

func TestResults(t *testing.T) {
	h := newRouter(t, 100, 100)

	rec := get(t, h, "/api/results?date=2017-07-26&quarters=0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var doc render.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "AAL", doc.Rows[0].Asset)
	require.Equal(t, []string{"_ev_to_ebitda", "_pe_ratio", "_ev_sales_ratio", "_payout_ratio"}, doc.Columns)
	require.NotNil(t, doc.Rows[0].Values[1])
	assert.Equal(t, 12.5, *doc.Rows[0].Values[1])
	assert.Nil(t, doc.Rows[0].Values[0], "missing inputs serialize as null")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/results?date=26-07-2017").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/results?date=2017-07-26&quarters=50000000").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/results/latest").Code, "cache disabled")
}

func TestJobs(t *testing.T) {
	rec := get(t, newRouter(t, 100, 100), "/api/jobs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := newRouter(t, 0.001, 2)

	assert.Equal(t, http.StatusOK, get(t, h, "/api/industries").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/industries").Code)

	rec := get(t, h, "/api/industries")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health is outside /api
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
}

func TestClientLimiters_Independent(t *testing.T) {
	l := newClientLimiters(0.001, 1)
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now))

	later := now.Add(idleLimiterTTL + time.Second)
	assert.True(t, l.allow("10.0.0.1", later), "idle buckets are dropped")
}
