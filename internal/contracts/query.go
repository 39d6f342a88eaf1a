package contracts

import (
	"context"
	"time"
)

// Filter is a per-asset, per-session membership predicate (the query screen)
type Filter interface {
	// Evaluate returns one membership flag per asset, in the order given
	Evaluate(ctx context.Context, src DataProvider, date time.Time, assets []string) ([]bool, error)

	// Describe returns a human-readable form of the predicate
	Describe() string
}

// Query is a screen plus named columns
// ⭐ SSOT: 조립된 쿼리 정의는 이 구조체로만 전달
type Query struct {
	Name       string
	Screen     Filter
	Columns    *ColumnSet
	ConfigHash string
}

// ColumnCount returns the number of named columns
func (q *Query) ColumnCount() int {
	if q.Columns == nil {
		return 0
	}
	return q.Columns.Len()
}
