package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIndustry(t *testing.T) {
	tests := []struct {
		input    string
		wantCode int64
		wantErr  bool
	}{
		{"airline", 31053108, false},
		{"semiconductor", 31169147, false},
		{"  Airline ", 31053108, false},
		{"SEMICONDUCTOR", 31169147, false},
		{"railroads", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ind, err := LookupIndustry(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "airline, semiconductor")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, ind.Code)
		})
	}
}

func TestIndustries_Sorted(t *testing.T) {
	assert.Equal(t, []Industry{
		{Name: "airline", Code: 31053108},
		{Name: "semiconductor", Code: 31169147},
	}, Industries())
	assert.Equal(t, []string{"airline", "semiconductor"}, IndustryNames())

	_, err := LookupIndustry(DefaultIndustry)
	assert.NoError(t, err)
}
