package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wonny/aegis-research/internal/contracts"
)

const dateKeyLayout = "20060102"

// Key prefixes
const (
	prefixValue   = "v/" // v/{field}/{date}/{asset} -> float64
	prefixSession = "d/" // d/{date}
	prefixLiquid  = "l/" // l/{date}/{asset} -> 0|1
	prefixAsset   = "a/" // a/{asset} -> first listed date
	prefixField   = "f/" // f/{field}
)

// BadgerProvider implements contracts.DataProvider on an embedded Badger store
type BadgerProvider struct {
	db      *badger.DB
	catalog *fieldIndex
}

// OpenBadger opens (or creates) a store at path. An empty path opens an in-memory store.
func OpenBadger(path string, known ...contracts.Field) (*BadgerProvider, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	p := &BadgerProvider{db: db, catalog: newFieldIndex(known...)}
	if err := p.loadCatalog(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the underlying store
func (p *BadgerProvider) Close() error {
	return p.db.Close()
}

func (p *BadgerProvider) loadCatalog() error {
	return p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefixField)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			qualified := strings.TrimPrefix(string(it.Item().Key()), prefixField)
			f, err := contracts.ParseField(qualified)
			if err != nil {
				continue
			}
			p.catalog.add(f)
		}
		return nil
	})
}

// Field implements contracts.FieldCatalog
func (p *BadgerProvider) Field(qualified string) (contracts.Field, error) {
	return p.catalog.resolve(qualified)
}

// Fields implements contracts.FieldCatalog
func (p *BadgerProvider) Fields() []contracts.Field {
	return p.catalog.list()
}

// SaveValues implements Sink
func (p *BadgerProvider) SaveValues(_ context.Context, obs []Observation) error {
	err := p.db.Update(func(txn *badger.Txn) error {
		for _, o := range obs {
			if o.Asset == "" || o.Field.IsZero() {
				return fmt.Errorf("invalid observation: asset=%q field=%q", o.Asset, o.Field)
			}
			d := day(o.Date)
			if err := p.touch(txn, d, o.Asset); err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixField+o.Field.QualifiedName()), nil); err != nil {
				return err
			}
			if err := txn.Set(valueKey(o.Field, d, o.Asset), encodeFloat(o.Value)); err != nil {
				return fmt.Errorf("failed to write value: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, o := range obs {
		p.catalog.add(o.Field)
	}
	return nil
}

// SaveLiquidity implements Sink
func (p *BadgerProvider) SaveLiquidity(_ context.Context, flags []LiquidFlag) error {
	return p.db.Update(func(txn *badger.Txn) error {
		for _, f := range flags {
			if f.Asset == "" {
				return fmt.Errorf("invalid liquidity flag: empty asset")
			}
			d := day(f.Date)
			if err := p.touch(txn, d, f.Asset); err != nil {
				return err
			}
			flag := []byte{0}
			if f.Liquid {
				flag[0] = 1
			}
			if err := txn.Set([]byte(prefixLiquid+d.Format(dateKeyLayout)+"/"+f.Asset), flag); err != nil {
				return fmt.Errorf("failed to write liquidity: %w", err)
			}
		}
		return nil
	})
}

// touch records the session and keeps the earliest listing date
func (p *BadgerProvider) touch(txn *badger.Txn, d time.Time, asset string) error {
	date := d.Format(dateKeyLayout)
	if err := txn.Set([]byte(prefixSession+date), nil); err != nil {
		return err
	}

	key := []byte(prefixAsset + asset)
	item, err := txn.Get(key)
	switch {
	case err == badger.ErrKeyNotFound:
		return txn.Set(key, []byte(date))
	case err != nil:
		return err
	}

	return item.Value(func(val []byte) error {
		if date < string(val) {
			return txn.Set(key, []byte(date))
		}
		return nil
	})
}

// Sessions implements contracts.Calendar
func (p *BadgerProvider) Sessions(_ context.Context, start, end time.Time) ([]time.Time, error) {
	all, err := p.sessions()
	if err != nil {
		return nil, err
	}

	start, end = day(start), day(end)
	out := make([]time.Time, 0)
	for _, s := range all {
		if s.Before(start) || s.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// sessions lists all sessions ascending (date keys sort lexicographically)
func (p *BadgerProvider) sessions() ([]time.Time, error) {
	out := make([]time.Time, 0)
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.IteratorOptions{Prefix: []byte(prefixSession)}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw := strings.TrimPrefix(string(it.Item().Key()), prefixSession)
			d, err := time.Parse(dateKeyLayout, raw)
			if err != nil {
				return fmt.Errorf("corrupt session key %q: %w", raw, err)
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

// Assets implements contracts.UniverseSource
func (p *BadgerProvider) Assets(_ context.Context, date time.Time) ([]string, error) {
	cutoff := day(date).Format(dateKeyLayout)
	out := make([]string, 0)

	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefixAsset), PrefetchValues: true})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			asset := strings.TrimPrefix(string(item.Key()), prefixAsset)
			err := item.Value(func(val []byte) error {
				if string(val) <= cutoff {
					out = append(out, asset)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

// LiquidUniverse implements contracts.UniverseSource
func (p *BadgerProvider) LiquidUniverse(_ context.Context, date time.Time) (map[string]bool, error) {
	prefix := []byte(prefixLiquid + day(date).Format(dateKeyLayout) + "/")
	members := make(map[string]bool)

	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			asset := strings.TrimPrefix(string(item.Key()), string(prefix))
			err := item.Value(func(val []byte) error {
				if len(val) == 1 && val[0] == 1 {
					members[asset] = true
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return members, err
}

// Window implements contracts.HistoryLoader
func (p *BadgerProvider) Window(ctx context.Context, field contracts.Field, asOf time.Time, length int, assets []string) (contracts.Window, error) {
	if length < 1 {
		return contracts.Window{}, fmt.Errorf("%w: length %d", contracts.ErrInvalidWindow, length)
	}
	if !p.catalog.has(field) {
		return contracts.Window{}, fmt.Errorf("%w: %s", contracts.ErrFieldNotFound, field)
	}

	all, err := p.sessions()
	if err != nil {
		return contracts.Window{}, err
	}
	sessions := trailing(all, asOf, length)
	offset := placeRows(length, len(sessions))
	w := contracts.NewWindow(field, assets, length)
	if len(sessions) == 0 || len(assets) == 0 {
		return w, nil
	}
	observed := newObserved(w)

	err = p.db.View(func(txn *badger.Txn) error {
		for i, s := range sessions {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j, asset := range assets {
				item, err := txn.Get(valueKey(field, s, asset))
				if err == badger.ErrKeyNotFound {
					continue
				}
				if err != nil {
					return err
				}
				row := offset + i
				col := j
				if err := item.Value(func(val []byte) error {
					w.Values[row][col] = decodeFloat(val)
					observed[row][col] = true
					return nil
				}); err != nil {
					return err
				}
			}
		}

		missing := make(map[string]int)
		for j, asset := range assets {
			if !observed[offset][j] {
				missing[asset] = j
			}
		}
		return p.seedBefore(txn, field, sessions[0], missing, func(col int, v float64) {
			w.Values[offset][col] = v
			observed[offset][col] = true
		})
	})
	if err != nil {
		return contracts.Window{}, fmt.Errorf("load %s: %w", field, err)
	}

	carryForward(w, observed)
	return w, nil
}

// seedBefore walks the field's values backwards from the day before `before` and
// reports each wanted asset's most recent observation.
func (p *BadgerProvider) seedBefore(txn *badger.Txn, field contracts.Field, before time.Time, want map[string]int, set func(col int, v float64)) error {
	if len(want) == 0 {
		return nil
	}

	prefix := []byte(prefixValue + field.QualifiedName() + "/")
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	// 역방향 Seek: seek 키 이하의 가장 큰 키 (= 이전 날짜의 마지막 키)
	seek := append(append([]byte{}, prefix...), before.Format(dateKeyLayout)...)
	for it.Seek(seek); it.ValidForPrefix(prefix) && len(want) > 0; it.Next() {
		rest := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
		_, asset, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		col, wanted := want[asset]
		if !wanted {
			continue
		}
		if err := it.Item().Value(func(val []byte) error {
			set(col, decodeFloat(val))
			return nil
		}); err != nil {
			return err
		}
		delete(want, asset)
	}
	return nil
}

func valueKey(field contracts.Field, d time.Time, asset string) []byte {
	return []byte(prefixValue + field.QualifiedName() + "/" + d.Format(dateKeyLayout) + "/" + asset)
}

func encodeFloat(v float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

func decodeFloat(b []byte) float64 {
	if len(b) != 8 {
		return math.NaN()
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

var (
	_ contracts.DataProvider = (*BadgerProvider)(nil)
	_ Sink                   = (*BadgerProvider)(nil)
)
