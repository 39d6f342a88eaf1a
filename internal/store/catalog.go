package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
)

// StandardFields is the Morningstar-style field set the default research query reads
var StandardFields = []contracts.Field{
	{Dataset: "asset_classification", Name: "morningstar_industry_code"},
	{Dataset: "operation_ratios", Name: "revenue_growth"},
	{Dataset: "operation_ratios", Name: "long_term_debt_equity_ratio"},
	{Dataset: "earnings_ratios", Name: "diluted_cont_eps_growth"},
	{Dataset: "valuation_ratios", Name: "buy_back_yield"},
	{Dataset: "valuation_ratios", Name: "ev_to_ebitda"},
	{Dataset: "valuation_ratios", Name: "pe_ratio"},
	{Dataset: "valuation_ratios", Name: "payout_ratio"},
	{Dataset: "valuation", Name: "enterprise_value"},
	{Dataset: "income_statement", Name: "total_revenue"},
	{Dataset: "balance_sheet", Name: "long_term_debt"},
	{Dataset: "balance_sheet", Name: "cash_and_cash_equivalents"},
}

// Observation is one stored field value
type Observation struct {
	Date  time.Time
	Asset string
	Field contracts.Field
	Value float64
}

// LiquidFlag records liquid-universe membership for one session
type LiquidFlag struct {
	Date   time.Time
	Asset  string
	Liquid bool
}

// Sink accepts fundamentals and membership rows (seeding)
type Sink interface {
	SaveValues(ctx context.Context, obs []Observation) error
	SaveLiquidity(ctx context.Context, flags []LiquidFlag) error
}

// fieldIndex resolves qualified or bare names against a known field set
type fieldIndex struct {
	mu     sync.RWMutex
	fields map[string]contracts.Field
}

func newFieldIndex(fields ...contracts.Field) *fieldIndex {
	x := &fieldIndex{fields: make(map[string]contracts.Field)}
	x.add(fields...)
	return x
}

func (x *fieldIndex) add(fields ...contracts.Field) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, f := range fields {
		x.fields[f.QualifiedName()] = f
	}
}

func (x *fieldIndex) has(f contracts.Field) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.fields[f.QualifiedName()]
	return ok
}

// resolve accepts "dataset.name" or a bare name that matches exactly one field
func (x *fieldIndex) resolve(name string) (contracts.Field, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if f, ok := x.fields[name]; ok {
		return f, nil
	}

	var match []contracts.Field
	for _, f := range x.fields {
		if f.Name == name {
			match = append(match, f)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return contracts.Field{}, fmt.Errorf("%w: %s", contracts.ErrFieldNotFound, name)
	default:
		return contracts.Field{}, fmt.Errorf("%w: %s is ambiguous (%d datasets)", contracts.ErrFieldNotFound, name, len(match))
	}
}

func (x *fieldIndex) list() []contracts.Field {
	x.mu.RLock()
	defer x.mu.RUnlock()

	fields := make([]contracts.Field, 0, len(x.fields))
	for _, f := range x.fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].QualifiedName() < fields[j].QualifiedName()
	})
	return fields
}

// day normalizes a timestamp to a UTC calendar date
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// trailing returns up to n sessions ending at asOf (inclusive) from an ascending list
func trailing(sessions []time.Time, asOf time.Time, n int) []time.Time {
	asOf = day(asOf)
	end := sort.Search(len(sessions), func(i int) bool { return sessions[i].After(asOf) })
	start := end - n
	if start < 0 {
		start = 0
	}
	return sessions[start:end]
}

// placeRows returns the row offset for `count` sessions in a window of `length` rows.
// Missing older sessions stay NaN at the top of the window.
func placeRows(length, count int) int {
	return length - count
}

// newObserved returns an all-false mask shaped like w
func newObserved(w contracts.Window) [][]bool {
	observed := make([][]bool, w.Len())
	for i := range observed {
		observed[i] = make([]bool, w.Width())
	}
	return observed
}

// carryForward fills every cell without an observation from the nearest observed
// cell above it in the same column. Cells above a column's first observation stay NaN.
func carryForward(w contracts.Window, observed [][]bool) {
	for j := range w.Assets {
		last, ok := 0.0, false
		for i, row := range w.Values {
			switch {
			case observed[i][j]:
				last, ok = row[j], true
			case ok:
				row[j] = last
			}
		}
	}
}
