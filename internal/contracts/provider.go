package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 데이터 제공자 인터페이스는 여기서만 정의
// 쿼리 조립기와 실행기는 전역 런타임 대신 이 인터페이스를 주입받음

// FieldCatalog resolves field names to fields
type FieldCatalog interface {
	// Field resolves a qualified name ("dataset.name"); unknown names wrap ErrFieldNotFound
	Field(qualified string) (Field, error)

	// Fields lists every known field
	Fields() []Field
}

// HistoryLoader delivers windowed history
type HistoryLoader interface {
	// Window returns the trailing `length` sessions ending at asOf (inclusive) for the
	// given assets, oldest-first. A session with no stored value repeats the asset's most
	// recent earlier observation (fundamentals are reported sparsely); sessions before the
	// first observation are NaN. The window is always `length` rows long even when fewer
	// sessions exist.
	Window(ctx context.Context, field Field, asOf time.Time, length int, assets []string) (Window, error)
}

// UniverseSource provides asset membership per session
type UniverseSource interface {
	// Assets returns every asset known on the date, sorted
	Assets(ctx context.Context, date time.Time) ([]string, error)

	// LiquidUniverse returns the prebuilt liquid/coverage membership set for the date
	LiquidUniverse(ctx context.Context, date time.Time) (map[string]bool, error)
}

// Calendar lists trading sessions
type Calendar interface {
	// Sessions returns trading sessions in [start, end], ascending
	Sessions(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// DataProvider is the full capability set the query assembler and executor depend on
type DataProvider interface {
	FieldCatalog
	HistoryLoader
	UniverseSource
	Calendar
}
