package factor

import (
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
)

// Merge flattens column sets in order. On a name collision the later set wins
// and the column keeps the position where it first appeared.
func Merge(sets ...*contracts.ColumnSet) *contracts.ColumnSet {
	merged := contracts.NewColumnSet()
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, col := range set.Columns() {
			merged.Set(col.Name, col.Extractor)
		}
	}
	return merged
}

// MergeStrict flattens column sets and fails on the first duplicate name
func MergeStrict(sets ...*contracts.ColumnSet) (*contracts.ColumnSet, error) {
	merged := contracts.NewColumnSet()
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, col := range set.Columns() {
			if merged.Has(col.Name) {
				return nil, fmt.Errorf("%w: %s", contracts.ErrDuplicateColumnName, col.Name)
			}
			merged.Set(col.Name, col.Extractor)
		}
	}
	return merged, nil
}
