package researchconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RepositoryConfig(t *testing.T) {
	path := "../../config/research/industry_fundamentals.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// description을 제외하면 저장소 YAML = 기본 쿼리
	cfg.Meta.Description = ""
	got, err := Hash(cfg)
	require.NoError(t, err)
	want, err := Hash(Default())
	require.NoError(t, err)

	assert.Len(t, got, 64)
	assert.Equal(t, want, got)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))

	assert.Equal(t, "airline", cfg.Universe.Industry)
	assert.Equal(t, 12, cfg.History.Quarters)
	assert.Len(t, cfg.InstantColumns, 4)
	assert.Len(t, cfg.History.Series, 5)

	bases := make([]string, len(cfg.History.Series))
	for i, s := range cfg.History.Series {
		bases[i] = SeriesBase(s)
	}
	assert.Equal(t, []string{
		"revenue_growth", "long_term_debt_equity_ratio", "diluted_cont_eps_growth",
		"buy_back_yield", "debt_cash_ratio",
	}, bases)
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Hash(Default().WithOverrides("semiconductor", -1))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestWithOverrides(t *testing.T) {
	base := Default()
	base.Universe.IndustryCode = 12345

	out := base.WithOverrides("semiconductor", 3)
	assert.Equal(t, "semiconductor", out.Universe.Industry)
	assert.Zero(t, out.Universe.IndustryCode)
	assert.Equal(t, 3, out.History.Quarters)

	// 원본은 변경되지 않음
	assert.Equal(t, "airline", base.Universe.Industry)
	assert.Equal(t, 12, base.History.Quarters)

	same := base.WithOverrides("", -1)
	assert.Equal(t, base.Universe, same.Universe)
	assert.Equal(t, 12, same.History.Quarters)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	data := []byte(`
meta:
  query_id: q
universe:
  base: liquid
  industy: airline
history:
  sessions_per_quarter: 64
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "industy")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meta:
  query_id: semis
universe:
  base: all
  industry: semiconductor
history:
  quarters: 2
  sessions_per_quarter: 64
  series:
    - field: operation_ratios.revenue_growth
`), 0o644))

	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "semis", cfg.Meta.QueryID)
	assert.Equal(t, []Warning{{Code: "UNFILTERED_BASE", Message: "universe.base=all skips the liquidity screen"}}, Warn(cfg))

	_, err = LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"missing query id", func(c *Config) { c.Meta.QueryID = "" }, "meta.query_id"},
		{"bad base", func(c *Config) { c.Universe.Base = "q500" }, "universe.base"},
		{"unknown industry", func(c *Config) { c.Universe.Industry = "railroads" }, "universe.industry"},
		{"negative code", func(c *Config) { c.Universe.IndustryCode = -1 }, "universe.industry_code"},
		{"column without name", func(c *Config) { c.InstantColumns[0].Name = "" }, "instant_columns[0].name"},
		{"duplicate column", func(c *Config) { c.InstantColumns[1].Name = "_ev_to_ebitda" }, "instant_columns[1].name"},
		{"field and ratio", func(c *Config) { c.InstantColumns[0].Numerator = "a.b" }, "instant_columns[0]"},
		{"half ratio", func(c *Config) { c.InstantColumns[2].Denominator = "" }, "instant_columns[2]"},
		{"no inputs", func(c *Config) { c.InstantColumns[3].Field = "" }, "instant_columns[3]"},
		{"bad field name", func(c *Config) { c.InstantColumns[0].Field = "valuation_ratios." }, "instant_columns[0]"},
		{"negative quarters", func(c *Config) { c.History.Quarters = -1 }, "history.quarters"},
		{"too many quarters", func(c *Config) { c.History.Quarters = MaxQuarters + 1 }, "history.quarters"},
		{"huge quarters", func(c *Config) { c.History.Quarters = 50_000_000 }, "history.quarters"},
		{"overflowing quarters", func(c *Config) { c.History.Quarters = 1 << 58 }, "history.quarters"},
		{"zero step", func(c *Config) { c.History.SessionsPerQuarter = 0 }, "history.sessions_per_quarter"},
		{"oversized step", func(c *Config) { c.History.SessionsPerQuarter = MaxSessionsPerQuarter + 1 }, "history.sessions_per_quarter"},
		{"unnamed ratio series", func(c *Config) { c.History.Series[4].Name = "" }, "history.series[4].name"},
		{"duplicate series", func(c *Config) { c.History.Series[1] = c.History.Series[0] }, "history.series[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestValidate_IndustryCodeOverride(t *testing.T) {
	cfg := Default()
	cfg.Universe.Industry = "railroads"
	cfg.Universe.IndustryCode = 31053108

	require.NoError(t, Validate(cfg))

	warnings := Warn(cfg)
	require.Len(t, warnings, 1)
	assert.Equal(t, "RAW_INDUSTRY_CODE", warnings[0].Code)
}

func TestWarn_NonstandardQuarter(t *testing.T) {
	cfg := Default()
	cfg.History.SessionsPerQuarter = 63

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"NONSTANDARD_QUARTER"}, codes)
}

func TestValidate_DeepestHistory(t *testing.T) {
	cfg := Default().WithOverrides("", MaxQuarters)
	cfg.History.SessionsPerQuarter = MaxSessionsPerQuarter
	require.NoError(t, Validate(cfg))
}
