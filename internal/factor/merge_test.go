package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/internal/contracts"
)

func TestMerge_LastWriteWins(t *testing.T) {
	first := contracts.NewColumnSet()
	first.Set("_pe_ratio", NewLatest(contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"}))
	first.Set("shared", NewLatest(revenueGrowth))

	replacement := NewPointInTime(longTermDebt, 65)
	second := contracts.NewColumnSet()
	second.Set("shared", replacement)
	second.Set("other", NewLatest(cash))

	merged := Merge(first, second)

	assert.Equal(t, []string{"_pe_ratio", "shared", "other"}, merged.Names())
	got, ok := merged.Get("shared")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestMerge_SkipsNil(t *testing.T) {
	merged := Merge(nil, HistoricalSeries(revenueGrowth, 2), nil)
	assert.Equal(t, 2, merged.Len())
}

func TestMergeStrict(t *testing.T) {
	a := HistoricalSeries(revenueGrowth, 2)
	b := HistoricalRatioSeries("debt_cash_ratio", longTermDebt, cash, 2)

	merged, err := MergeStrict(a, b)
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Len())

	_, err = MergeStrict(a, HistoricalSeries(revenueGrowth, 1))
	assert.ErrorIs(t, err, contracts.ErrDuplicateColumnName)
	assert.Contains(t, err.Error(), "revenue_growth_Q00")
}
