package universe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
)

// IndustryCodeField is the classification field compared by IndustryEquals
var IndustryCodeField = contracts.Field{Dataset: "asset_classification", Name: "morningstar_industry_code"}

// LiquidUniverse passes assets in the provider's prebuilt liquid/coverage set
type LiquidUniverse struct{}

// Evaluate implements contracts.Filter
func (LiquidUniverse) Evaluate(ctx context.Context, src contracts.DataProvider, date time.Time, assets []string) ([]bool, error) {
	members, err := src.LiquidUniverse(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("liquid universe: %w", err)
	}

	mask := make([]bool, len(assets))
	for j, a := range assets {
		mask[j] = members[a]
	}
	return mask, nil
}

// Describe implements contracts.Filter
func (LiquidUniverse) Describe() string {
	return "liquid"
}

// AllAssets passes every asset
type AllAssets struct{}

// Evaluate implements contracts.Filter
func (AllAssets) Evaluate(_ context.Context, _ contracts.DataProvider, _ time.Time, assets []string) ([]bool, error) {
	mask := make([]bool, len(assets))
	for j := range mask {
		mask[j] = true
	}
	return mask, nil
}

// Describe implements contracts.Filter
func (AllAssets) Describe() string {
	return "all"
}

// Equals passes assets whose latest value of Field equals Value
type Equals struct {
	Field contracts.Field
	Value float64
}

// IndustryEquals compares the latest industry classification code
func IndustryEquals(ind Industry) Equals {
	return Equals{Field: IndustryCodeField, Value: float64(ind.Code)}
}

// Evaluate implements contracts.Filter
func (f Equals) Evaluate(ctx context.Context, src contracts.DataProvider, date time.Time, assets []string) ([]bool, error) {
	mask := make([]bool, len(assets))
	if len(assets) == 0 {
		return mask, nil
	}

	w, err := src.Window(ctx, f.Field, date, 1, assets)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Field, err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	latest := w.Latest()
	for j := range assets {
		mask[j] = latest[j] == f.Value // NaN은 항상 false
	}
	return mask, nil
}

// Describe implements contracts.Filter
func (f Equals) Describe() string {
	return fmt.Sprintf("%s == %.0f", f.Field.ShortName(), f.Value)
}

// AllOf is the intersection of filters
type AllOf []contracts.Filter

// And intersects filters
func And(filters ...contracts.Filter) AllOf {
	return AllOf(filters)
}

// Evaluate implements contracts.Filter
func (a AllOf) Evaluate(ctx context.Context, src contracts.DataProvider, date time.Time, assets []string) ([]bool, error) {
	reasons, err := a.Explain(ctx, src, date, assets)
	if err != nil {
		return nil, err
	}

	mask := make([]bool, len(assets))
	for j, r := range reasons {
		mask[j] = r == ""
	}
	return mask, nil
}

// Explain returns, per asset, the description of the first filter it fails ("" = passed)
func (a AllOf) Explain(ctx context.Context, src contracts.DataProvider, date time.Time, assets []string) ([]string, error) {
	reasons := make([]string, len(assets))
	for _, f := range a {
		mask, err := f.Evaluate(ctx, src, date, assets)
		if err != nil {
			return nil, err
		}
		for j, ok := range mask {
			if !ok && reasons[j] == "" {
				reasons[j] = f.Describe()
			}
		}
	}
	return reasons, nil
}

// Describe implements contracts.Filter
func (a AllOf) Describe() string {
	parts := make([]string, len(a))
	for i, f := range a {
		parts[i] = f.Describe()
	}
	return strings.Join(parts, " & ")
}

// Negation inverts a filter
type Negation struct {
	Filter contracts.Filter
}

// Not inverts a filter
func Not(f contracts.Filter) Negation {
	return Negation{Filter: f}
}

// Evaluate implements contracts.Filter
func (n Negation) Evaluate(ctx context.Context, src contracts.DataProvider, date time.Time, assets []string) ([]bool, error) {
	mask, err := n.Filter.Evaluate(ctx, src, date, assets)
	if err != nil {
		return nil, err
	}
	for j := range mask {
		mask[j] = !mask[j]
	}
	return mask, nil
}

// Describe implements contracts.Filter
func (n Negation) Describe() string {
	return "!(" + n.Filter.Describe() + ")"
}

// Screen evaluates a filter for one session and reports included/excluded assets
func Screen(ctx context.Context, src contracts.DataProvider, screen contracts.Filter, date time.Time) (*contracts.Membership, error) {
	assets, err := src.Assets(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}

	m := &contracts.Membership{
		Date:       date,
		Assets:     make([]string, 0),
		Excluded:   make(map[string]string),
		TotalCount: len(assets),
	}

	var reasons []string
	if all, ok := screen.(AllOf); ok {
		reasons, err = all.Explain(ctx, src, date, assets)
	} else {
		var mask []bool
		mask, err = screen.Evaluate(ctx, src, date, assets)
		if err == nil {
			reasons = make([]string, len(assets))
			for j, pass := range mask {
				if !pass {
					reasons[j] = screen.Describe()
				}
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate screen: %w", err)
	}

	for j, a := range assets {
		if reasons[j] != "" {
			m.Excluded[a] = reasons[j]
			continue
		}
		m.Assets = append(m.Assets, a)
	}
	return m, nil
}
