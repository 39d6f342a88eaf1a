package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-research/internal/contracts"
)

// Schema creates the research tables (idempotent)
const Schema = `
CREATE SCHEMA IF NOT EXISTS data;

CREATE TABLE IF NOT EXISTS data.fundamental_values (
	trade_date DATE             NOT NULL,
	asset      TEXT             NOT NULL,
	field      TEXT             NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (field, trade_date, asset)
);

CREATE TABLE IF NOT EXISTS data.liquid_universe (
	trade_date DATE    NOT NULL,
	asset      TEXT    NOT NULL,
	liquid     BOOLEAN NOT NULL,
	PRIMARY KEY (trade_date, asset)
);

CREATE INDEX IF NOT EXISTS idx_fundamental_values_asset ON data.fundamental_values (asset, trade_date);
`

// PostgresProvider implements contracts.DataProvider over pgx
// ⭐ SSOT: 펀더멘털 시계열 저장소 (PostgreSQL)
type PostgresProvider struct {
	pool    *pgxpool.Pool
	catalog *fieldIndex
}

// NewPostgresProvider ensures the schema and loads the field catalog
func NewPostgresProvider(ctx context.Context, pool *pgxpool.Pool, known ...contracts.Field) (*PostgresProvider, error) {
	p := &PostgresProvider{
		pool:    pool,
		catalog: newFieldIndex(known...),
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates tables if they do not exist
func (p *PostgresProvider) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Refresh reloads the field catalog from stored values
func (p *PostgresProvider) Refresh(ctx context.Context) error {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT field FROM data.fundamental_values`)
	if err != nil {
		return fmt.Errorf("load field catalog: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qualified string
		if err := rows.Scan(&qualified); err != nil {
			return fmt.Errorf("scan field: %w", err)
		}
		f, err := contracts.ParseField(qualified)
		if err != nil {
			continue
		}
		p.catalog.add(f)
	}
	return rows.Err()
}

// Field implements contracts.FieldCatalog
func (p *PostgresProvider) Field(qualified string) (contracts.Field, error) {
	return p.catalog.resolve(qualified)
}

// Fields implements contracts.FieldCatalog
func (p *PostgresProvider) Fields() []contracts.Field {
	return p.catalog.list()
}

// Sessions implements contracts.Calendar
func (p *PostgresProvider) Sessions(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT trade_date FROM data.fundamental_values WHERE trade_date BETWEEN $1 AND $2
		UNION
		SELECT trade_date FROM data.liquid_universe WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date
	`
	return p.queryDates(ctx, query, day(start), day(end))
}

// Assets implements contracts.UniverseSource
func (p *PostgresProvider) Assets(ctx context.Context, date time.Time) ([]string, error) {
	query := `
		SELECT asset FROM data.fundamental_values WHERE trade_date <= $1
		UNION
		SELECT asset FROM data.liquid_universe WHERE trade_date <= $1
		ORDER BY asset
	`

	rows, err := p.pool.Query(ctx, query, day(date))
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]string, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// LiquidUniverse implements contracts.UniverseSource
func (p *PostgresProvider) LiquidUniverse(ctx context.Context, date time.Time) (map[string]bool, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT asset FROM data.liquid_universe WHERE trade_date = $1 AND liquid`, day(date))
	if err != nil {
		return nil, fmt.Errorf("query liquid universe: %w", err)
	}
	defer rows.Close()

	members := make(map[string]bool)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		members[a] = true
	}
	return members, rows.Err()
}

// Window implements contracts.HistoryLoader
func (p *PostgresProvider) Window(ctx context.Context, field contracts.Field, asOf time.Time, length int, assets []string) (contracts.Window, error) {
	if length < 1 {
		return contracts.Window{}, fmt.Errorf("%w: length %d", contracts.ErrInvalidWindow, length)
	}
	if !p.catalog.has(field) {
		return contracts.Window{}, fmt.Errorf("%w: %s", contracts.ErrFieldNotFound, field)
	}

	// 최근 length개 세션 (오래된 순으로 재정렬)
	sessionQuery := `
		SELECT trade_date FROM (
			SELECT trade_date FROM data.fundamental_values WHERE trade_date <= $1
			UNION
			SELECT trade_date FROM data.liquid_universe WHERE trade_date <= $1
			ORDER BY trade_date DESC
			LIMIT $2
		) s
		ORDER BY trade_date
	`
	sessions, err := p.queryDates(ctx, sessionQuery, day(asOf), length)
	if err != nil {
		return contracts.Window{}, err
	}

	w := contracts.NewWindow(field, assets, length)
	if len(sessions) == 0 || len(assets) == 0 {
		return w, nil
	}

	rowOf := make(map[time.Time]int, len(sessions))
	offset := placeRows(length, len(sessions))
	for i, s := range sessions {
		rowOf[day(s)] = offset + i
	}
	colOf := make(map[string]int, len(assets))
	for j, a := range assets {
		colOf[a] = j
	}
	observed := newObserved(w)

	// 윈도우 첫 세션 이전의 마지막 관측값을 첫 행에 채움
	valueQuery := `
		SELECT $2::date AS trade_date, asset, value, 0 AS src FROM (
			SELECT DISTINCT ON (asset) asset, value
			FROM data.fundamental_values
			WHERE field = $1 AND trade_date < $2 AND asset = ANY($4)
			ORDER BY asset, trade_date DESC
		) carried
		UNION ALL
		SELECT trade_date, asset, value, 1 AS src
		FROM data.fundamental_values
		WHERE field = $1 AND trade_date BETWEEN $2 AND $3 AND asset = ANY($4)
		ORDER BY trade_date, src
	`
	rows, err := p.pool.Query(ctx, valueQuery, field.QualifiedName(), sessions[0], sessions[len(sessions)-1], assets)
	if err != nil {
		return contracts.Window{}, fmt.Errorf("query %s: %w", field, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d     time.Time
			asset string
			value float64
			src   int
		)
		if err := rows.Scan(&d, &asset, &value, &src); err != nil {
			return contracts.Window{}, fmt.Errorf("scan %s: %w", field, err)
		}
		i, ok := rowOf[day(d)]
		if !ok {
			continue
		}
		// src=0 (이전 관측값)이 먼저 오고 같은 날짜의 실제 값이 덮어씀
		j := colOf[asset]
		w.Values[i][j] = value
		observed[i][j] = true
	}
	if err := rows.Err(); err != nil {
		return contracts.Window{}, fmt.Errorf("iterate %s: %w", field, err)
	}

	carryForward(w, observed)
	return w, nil
}

// SaveValues implements Sink.
// Rows are bulk-copied into a temp table and upserted in one transaction.
func (p *PostgresProvider) SaveValues(ctx context.Context, obs []Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE tmp_fundamental_values (LIKE data.fundamental_values INCLUDING DEFAULTS)
		ON COMMIT DROP
	`); err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}

	source := pgx.CopyFromSlice(len(obs), func(i int) ([]any, error) {
		o := obs[i]
		return []any{day(o.Date), o.Asset, o.Field.QualifiedName(), o.Value}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"tmp_fundamental_values"},
		[]string{"trade_date", "asset", "field", "value"}, source); err != nil {
		return fmt.Errorf("copy values: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO data.fundamental_values (trade_date, asset, field, value)
		SELECT DISTINCT ON (field, trade_date, asset) trade_date, asset, field, value
		FROM tmp_fundamental_values
		ON CONFLICT (field, trade_date, asset) DO UPDATE SET value = EXCLUDED.value
	`); err != nil {
		return fmt.Errorf("upsert values: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, o := range obs {
		p.catalog.add(o.Field)
	}
	return nil
}

// SaveLiquidity implements Sink
func (p *PostgresProvider) SaveLiquidity(ctx context.Context, flags []LiquidFlag) error {
	if len(flags) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.liquid_universe (trade_date, asset, liquid)
		VALUES ($1, $2, $3)
		ON CONFLICT (trade_date, asset) DO UPDATE SET liquid = EXCLUDED.liquid
	`

	batch := &pgx.Batch{}
	for _, f := range flags {
		batch.Queue(query, day(f.Date), f.Asset, f.Liquid)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range flags {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save liquidity: %w", err)
		}
	}
	return nil
}

func (p *PostgresProvider) queryDates(ctx context.Context, query string, args ...any) ([]time.Time, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		dates = append(dates, day(d))
	}
	return dates, rows.Err()
}

var (
	_ contracts.DataProvider = (*PostgresProvider)(nil)
	_ Sink                   = (*PostgresProvider)(nil)
)
