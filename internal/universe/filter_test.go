package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/store"
)

var asOf = time.Date(2017, 7, 26, 0, 0, 0, 0, time.UTC)

// fixture: AAL, DAL airlines (liquid); NVDA semiconductor (liquid); JBLU airline (not liquid); XYZ unclassified
func fixture(t *testing.T) *store.MemoryProvider {
	t.Helper()
	p := store.NewMemoryProvider(store.StandardFields...)
	ctx := context.Background()

	codes := map[string]float64{"AAL": 31053108, "DAL": 31053108, "NVDA": 31169147, "JBLU": 31053108}
	obs := make([]store.Observation, 0, len(codes))
	for asset, code := range codes {
		obs = append(obs, store.Observation{Date: asOf, Asset: asset, Field: IndustryCodeField, Value: code})
	}
	obs = append(obs, store.Observation{
		Date: asOf, Asset: "XYZ",
		Field: contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"}, Value: 10,
	})
	require.NoError(t, p.SaveValues(ctx, obs))

	require.NoError(t, p.SaveLiquidity(ctx, []store.LiquidFlag{
		{Date: asOf, Asset: "AAL", Liquid: true},
		{Date: asOf, Asset: "DAL", Liquid: true},
		{Date: asOf, Asset: "NVDA", Liquid: true},
		{Date: asOf, Asset: "JBLU", Liquid: false},
		{Date: asOf, Asset: "XYZ", Liquid: true},
	}))
	return p
}

func airline(t *testing.T) Industry {
	ind, err := LookupIndustry("airline")
	require.NoError(t, err)
	return ind
}

func TestEquals(t *testing.T) {
	p := fixture(t)
	assets := []string{"AAL", "JBLU", "NVDA", "XYZ"}

	mask, err := IndustryEquals(airline(t)).Evaluate(context.Background(), p, asOf, assets)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, mask, "missing code (NaN) never matches")

	assert.Equal(t, "morningstar_industry_code == 31053108", IndustryEquals(airline(t)).Describe())
}

func TestEquals_EmptyAssets(t *testing.T) {
	mask, err := IndustryEquals(airline(t)).Evaluate(context.Background(), fixture(t), asOf, nil)
	require.NoError(t, err)
	assert.Empty(t, mask)
}

func TestEquals_UnknownField(t *testing.T) {
	f := Equals{Field: contracts.Field{Dataset: "nope", Name: "missing"}, Value: 1}
	_, err := f.Evaluate(context.Background(), fixture(t), asOf, []string{"AAL"})
	assert.ErrorIs(t, err, contracts.ErrFieldNotFound)
}

func TestLiquidAndAll(t *testing.T) {
	p := fixture(t)
	assets := []string{"AAL", "JBLU"}

	mask, err := LiquidUniverse{}.Evaluate(context.Background(), p, asOf, assets)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, mask)

	mask, err = AllAssets{}.Evaluate(context.Background(), p, asOf, assets)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, mask)
}

func TestNot(t *testing.T) {
	p := fixture(t)

	f := Not(LiquidUniverse{})
	mask, err := f.Evaluate(context.Background(), p, asOf, []string{"AAL", "JBLU"})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, mask)
	assert.Equal(t, "!(liquid)", f.Describe())
}

func TestScreen_LiquidAirlines(t *testing.T) {
	p := fixture(t)
	screen := And(LiquidUniverse{}, IndustryEquals(airline(t)))

	m, err := Screen(context.Background(), p, screen, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAL", "DAL"}, m.Assets)
	assert.Equal(t, 5, m.TotalCount)
	assert.Equal(t, map[string]string{
		"JBLU": "liquid",
		"NVDA": "morningstar_industry_code == 31053108",
		"XYZ":  "morningstar_industry_code == 31053108",
	}, m.Excluded)
	assert.Equal(t, "liquid & morningstar_industry_code == 31053108", screen.Describe())
}

func TestScreen_SingleFilter(t *testing.T) {
	m, err := Screen(context.Background(), fixture(t), Not(AllAssets{}), asOf)
	require.NoError(t, err)
	assert.Empty(t, m.Assets)
	assert.Len(t, m.Excluded, 5)
	assert.Equal(t, "!(all)", m.Excluded["AAL"])
}

func TestScreen_EmptyUniverseIsNotAnError(t *testing.T) {
	before := asOf.AddDate(0, 0, -30)

	m, err := Screen(context.Background(), fixture(t), And(LiquidUniverse{}, IndustryEquals(airline(t))), before)
	require.NoError(t, err)
	assert.Empty(t, m.Assets)
	assert.Zero(t, m.TotalCount)
}

type failingFilter struct{}

func (failingFilter) Evaluate(context.Context, contracts.DataProvider, time.Time, []string) ([]bool, error) {
	return nil, errors.New("boom")
}

func (failingFilter) Describe() string { return "failing" }

func TestScreen_PropagatesErrors(t *testing.T) {
	_, err := Screen(context.Background(), fixture(t), And(AllAssets{}, failingFilter{}), asOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
