package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
)

// MemoryProvider is an in-process DataProvider.
// Used by tests, `run --csv` and STORE_BACKEND=memory.
type MemoryProvider struct {
	mu sync.RWMutex

	catalog  *fieldIndex
	sessions []time.Time
	listed   map[string]time.Time // asset -> 첫 관측일
	values   map[string]map[time.Time]map[string]float64
	liquid   map[time.Time]map[string]bool
}

// NewMemoryProvider creates an empty provider that knows the given fields
func NewMemoryProvider(fields ...contracts.Field) *MemoryProvider {
	return &MemoryProvider{
		catalog: newFieldIndex(fields...),
		listed:  make(map[string]time.Time),
		values:  make(map[string]map[time.Time]map[string]float64),
		liquid:  make(map[time.Time]map[string]bool),
	}
}

// Field implements contracts.FieldCatalog
func (p *MemoryProvider) Field(qualified string) (contracts.Field, error) {
	return p.catalog.resolve(qualified)
}

// Fields implements contracts.FieldCatalog
func (p *MemoryProvider) Fields() []contracts.Field {
	return p.catalog.list()
}

// SaveValues implements Sink
func (p *MemoryProvider) SaveValues(_ context.Context, obs []Observation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, o := range obs {
		if o.Asset == "" || o.Field.IsZero() {
			return fmt.Errorf("invalid observation: asset=%q field=%q", o.Asset, o.Field)
		}
		d := day(o.Date)
		p.catalog.add(o.Field)
		p.touch(d, o.Asset)

		byDate, ok := p.values[o.Field.QualifiedName()]
		if !ok {
			byDate = make(map[time.Time]map[string]float64)
			p.values[o.Field.QualifiedName()] = byDate
		}
		row, ok := byDate[d]
		if !ok {
			row = make(map[string]float64)
			byDate[d] = row
		}
		row[o.Asset] = o.Value
	}
	return nil
}

// SaveLiquidity implements Sink
func (p *MemoryProvider) SaveLiquidity(_ context.Context, flags []LiquidFlag) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range flags {
		if f.Asset == "" {
			return fmt.Errorf("invalid liquidity flag: empty asset")
		}
		d := day(f.Date)
		p.touch(d, f.Asset)

		members, ok := p.liquid[d]
		if !ok {
			members = make(map[string]bool)
			p.liquid[d] = members
		}
		members[f.Asset] = f.Liquid
	}
	return nil
}

// touch registers a session and the asset's listing date. Caller holds mu.
func (p *MemoryProvider) touch(d time.Time, asset string) {
	i := sort.Search(len(p.sessions), func(i int) bool { return !p.sessions[i].Before(d) })
	if i == len(p.sessions) || !p.sessions[i].Equal(d) {
		p.sessions = append(p.sessions, time.Time{})
		copy(p.sessions[i+1:], p.sessions[i:])
		p.sessions[i] = d
	}

	if first, ok := p.listed[asset]; !ok || d.Before(first) {
		p.listed[asset] = d
	}
}

// Sessions implements contracts.Calendar
func (p *MemoryProvider) Sessions(_ context.Context, start, end time.Time) ([]time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	start, end = day(start), day(end)
	out := make([]time.Time, 0)
	for _, s := range p.sessions {
		if s.Before(start) || s.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Assets implements contracts.UniverseSource.
// An asset is listed from its first observation onwards.
func (p *MemoryProvider) Assets(_ context.Context, date time.Time) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d := day(date)
	out := make([]string, 0, len(p.listed))
	for asset, first := range p.listed {
		if !first.After(d) {
			out = append(out, asset)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LiquidUniverse implements contracts.UniverseSource
func (p *MemoryProvider) LiquidUniverse(_ context.Context, date time.Time) (map[string]bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]bool)
	for asset, ok := range p.liquid[day(date)] {
		if ok {
			out[asset] = true
		}
	}
	return out, nil
}

// Window implements contracts.HistoryLoader
func (p *MemoryProvider) Window(ctx context.Context, field contracts.Field, asOf time.Time, length int, assets []string) (contracts.Window, error) {
	if length < 1 {
		return contracts.Window{}, fmt.Errorf("%w: length %d", contracts.ErrInvalidWindow, length)
	}
	if !p.catalog.has(field) {
		return contracts.Window{}, fmt.Errorf("%w: %s", contracts.ErrFieldNotFound, field)
	}
	if err := ctx.Err(); err != nil {
		return contracts.Window{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	w := contracts.NewWindow(field, assets, length)
	sessions := trailing(p.sessions, asOf, length)
	if len(sessions) == 0 || len(assets) == 0 {
		return w, nil
	}
	offset := placeRows(length, len(sessions))
	byDate := p.values[field.QualifiedName()]
	observed := newObserved(w)

	for i, s := range sessions {
		row := byDate[s]
		for j, asset := range assets {
			if v, ok := row[asset]; ok {
				w.Values[offset+i][j] = v
				observed[offset+i][j] = true
			}
		}
	}

	// 윈도우 시작 이전의 마지막 관측값
	first := sort.Search(len(p.sessions), func(i int) bool { return !p.sessions[i].Before(sessions[0]) })
	for j, asset := range assets {
		if observed[offset][j] {
			continue
		}
		for k := first - 1; k >= 0; k-- {
			if v, ok := byDate[p.sessions[k]][asset]; ok {
				w.Values[offset][j] = v
				observed[offset][j] = true
				break
			}
		}
	}

	carryForward(w, observed)
	return w, nil
}

var (
	_ contracts.DataProvider = (*MemoryProvider)(nil)
	_ Sink                   = (*MemoryProvider)(nil)
)
