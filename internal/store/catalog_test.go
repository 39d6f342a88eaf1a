package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/internal/contracts"
)

func TestFieldIndex_Resolve(t *testing.T) {
	idx := newFieldIndex(
		contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"},
		contracts.Field{Dataset: "balance_sheet", Name: "total_assets"},
		contracts.Field{Dataset: "legacy_sheet", Name: "total_assets"},
	)

	tests := []struct {
		name    string
		input   string
		want    contracts.Field
		wantErr bool
	}{
		{"qualified", "valuation_ratios.pe_ratio", contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"}, false},
		{"unique bare name", "pe_ratio", contracts.Field{Dataset: "valuation_ratios", Name: "pe_ratio"}, false},
		{"ambiguous bare name", "total_assets", contracts.Field{}, true},
		{"unknown", "nope", contracts.Field{}, true},
		{"qualified disambiguates", "legacy_sheet.total_assets", contracts.Field{Dataset: "legacy_sheet", Name: "total_assets"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.resolve(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, contracts.ErrFieldNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldIndex_ListSorted(t *testing.T) {
	idx := newFieldIndex(StandardFields...)
	list := idx.list()

	require.Len(t, list, len(StandardFields))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].QualifiedName(), list[i].QualifiedName())
	}
}

func TestTrailing(t *testing.T) {
	sessions := []time.Time{date(20), date(21), date(24), date(25), date(26)}

	assert.Equal(t, []time.Time{date(24), date(25)}, trailing(sessions, date(25), 2))
	assert.Equal(t, []time.Time{date(20), date(21)}, trailing(sessions, date(22), 5), "asOf between sessions")
	assert.Empty(t, trailing(sessions, date(1), 3))

	intraday := date(26).Add(15 * time.Hour)
	assert.Equal(t, []time.Time{date(26)}, trailing(sessions, intraday, 1))
}
