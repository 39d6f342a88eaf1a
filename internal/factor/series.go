package factor

import (
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
)

// SessionsPerQuarter approximates one fiscal quarter in trading sessions.
// Fixed by convention; no holiday or leap-year adjustment.
const SessionsPerQuarter = 64

// SeriesBuilder generates quarterly snapshot columns
type SeriesBuilder struct {
	SessionsPerQuarter int
}

// DefaultSeries uses 64 sessions per quarter
var DefaultSeries = SeriesBuilder{SessionsPerQuarter: SessionsPerQuarter}

// WindowLength returns the window that reaches back i quarters: i*step + 1.
// i = 0 is today's value.
func (b SeriesBuilder) WindowLength(i int) int {
	return i*b.SessionsPerQuarter + 1
}

// Field builds N point-in-time columns named {short_name}_Q00 .. _Q(N-1).
// quarters <= 0 yields an empty set.
func (b SeriesBuilder) Field(field contracts.Field, quarters int) *contracts.ColumnSet {
	return b.Named(field.ShortName(), field, quarters)
}

// Named is Field with a caller-chosen base name
func (b SeriesBuilder) Named(base string, field contracts.Field, quarters int) *contracts.ColumnSet {
	set := contracts.NewColumnSet()
	for i := 0; i < quarters; i++ {
		set.Set(QuarterColumnName(base, i), NewPointInTime(field, b.WindowLength(i)))
	}
	return set
}

// Ratio builds N ratio columns named {base}_Q00 .. _Q(N-1)
func (b SeriesBuilder) Ratio(base string, numerator, denominator contracts.Field, quarters int) *contracts.ColumnSet {
	set := contracts.NewColumnSet()
	for i := 0; i < quarters; i++ {
		set.Set(QuarterColumnName(base, i), NewRatio(numerator, denominator, b.WindowLength(i)))
	}
	return set
}

// HistoricalSeries builds a 64-session quarterly series for one field
func HistoricalSeries(field contracts.Field, quarters int) *contracts.ColumnSet {
	return DefaultSeries.Field(field, quarters)
}

// HistoricalRatioSeries builds a 64-session quarterly ratio series
func HistoricalRatioSeries(base string, numerator, denominator contracts.Field, quarters int) *contracts.ColumnSet {
	return DefaultSeries.Ratio(base, numerator, denominator, quarters)
}

// QuarterWindowLength is DefaultSeries.WindowLength
func QuarterWindowLength(i int) int {
	return DefaultSeries.WindowLength(i)
}

// QuarterColumnName formats "{base}_Q{i:02d}".
// Width stays 2 only for i < 100.
func QuarterColumnName(base string, i int) string {
	return fmt.Sprintf("%s_Q%02d", base, i)
}
