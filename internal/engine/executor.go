package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/factor"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
)

// Executor runs a Query over a date range
// ⭐ SSOT: 쿼리 실행은 여기서만
type Executor struct {
	provider contracts.DataProvider
	logger   *logger.Logger
}

// New creates a new executor
func New(provider contracts.DataProvider, log *logger.Logger) *Executor {
	return &Executor{
		provider: provider,
		logger:   log.WithComponent("engine"),
	}
}

// Run evaluates the screen and every column for each session in [start, end].
// An empty universe yields a zero-row table. Non-finite ratio outputs are kept as NaN
// and reported as warnings wrapping contracts.ErrDivisionUndefined.
func (e *Executor) Run(ctx context.Context, q *contracts.Query, start, end time.Time) (*contracts.ResultTable, error) {
	if q == nil || q.Screen == nil || q.Columns == nil {
		return nil, errors.New("query requires a screen and columns")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	sessions, err := e.provider.Sessions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	table := &contracts.ResultTable{
		RunID:      uuid.New().String(),
		QueryName:  q.Name,
		ConfigHash: q.ConfigHash,
		Start:      start,
		End:        end,
		Columns:    q.Columns.Names(),
		Rows:       make([]contracts.ResultRow, 0),
	}

	log := e.logger.WithFields(map[string]interface{}{
		"run_id": table.RunID,
		"query":  q.Name,
	})
	log.WithFields(map[string]interface{}{
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
		"sessions": len(sessions),
		"columns":  len(table.Columns),
	}).Info("Starting query run")

	nonFinite := make(map[string]int)
	for _, date := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := e.runSession(ctx, q, date, nonFinite)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", date.Format("2006-01-02"), err)
		}
		table.Rows = append(table.Rows, rows...)
	}

	table.Warnings = collectWarnings(table.Columns, nonFinite)
	for _, w := range table.Warnings {
		log.WithFields(map[string]interface{}{
			"stage":  contracts.StageCompute,
			"column": w.Column,
			"cells":  w.Count,
		}).Warn("Ratio undefined for some assets")
	}

	if table.Len() == 0 {
		log.Info("Screen matched no assets; returning empty table")
	}
	log.WithFields(map[string]interface{}{
		"rows":     table.Len(),
		"warnings": len(table.Warnings),
	}).Info("Query run completed")

	return table, nil
}

// runSession screens one date and computes every column for the survivors
func (e *Executor) runSession(ctx context.Context, q *contracts.Query, date time.Time, nonFinite map[string]int) ([]contracts.ResultRow, error) {
	members, err := universe.Screen(ctx, e.provider, q.Screen, date)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":    contracts.StageScreen,
		"date":     date.Format("2006-01-02"),
		"passed":   members.Count(),
		"excluded": len(members.Excluded),
	}).Debug("Screen evaluated")

	assets := members.Assets
	if len(assets) == 0 {
		return nil, nil
	}
	sort.Strings(assets)

	windows, err := e.loadWindows(ctx, q.Columns, date, assets)
	if err != nil {
		return nil, err
	}

	columns := q.Columns.Columns()
	values := make([][]float64, len(columns)) // [column][asset]
	for c, col := range columns {
		ext := col.Extractor
		inputs := make([]contracts.Window, len(ext.Inputs()))
		for k, f := range ext.Inputs() {
			inputs[k] = windows[f].Tail(ext.WindowLength())
		}

		out := make([]float64, len(assets))
		if err := ext.Compute(out, inputs); err != nil {
			return nil, fmt.Errorf("compute %s: %w", col.Name, err)
		}
		if ext.Kind() == contracts.KindRatio {
			if n := factor.CountNonFinite(out); n > 0 {
				nonFinite[col.Name] += n
			}
		}
		values[c] = out
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":   contracts.StageCompute,
		"date":    date.Format("2006-01-02"),
		"assets":  len(assets),
		"columns": len(columns),
	}).Debug("Columns computed")

	rows := make([]contracts.ResultRow, len(assets))
	for j, asset := range assets {
		row := make([]float64, len(columns))
		for c := range columns {
			row[c] = values[c][j]
		}
		rows[j] = contracts.ResultRow{Date: date, Asset: asset, Values: row}
	}
	return rows, nil
}

// loadWindows fetches each input field once at the longest window any column needs
func (e *Executor) loadWindows(ctx context.Context, cols *contracts.ColumnSet, date time.Time, assets []string) (map[contracts.Field]contracts.Window, error) {
	windows := make(map[contracts.Field]contracts.Window)
	for _, f := range cols.Fields() {
		length := cols.MaxWindowLength(f)

		w, err := e.provider.Window(ctx, f, date, length, assets)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		if w.Len() != length || w.Width() != len(assets) {
			return nil, fmt.Errorf("%w: %s returned %dx%d, want %dx%d",
				contracts.ErrInvalidWindow, f, w.Len(), w.Width(), length, len(assets))
		}
		windows[f] = w
	}
	return windows, nil
}

// collectWarnings orders division warnings by column position
func collectWarnings(columns []string, nonFinite map[string]int) []contracts.Warning {
	warnings := make([]contracts.Warning, 0)
	for _, name := range columns {
		if n := nonFinite[name]; n > 0 {
			warnings = append(warnings, contracts.Warning{
				Column: name,
				Err:    contracts.ErrDivisionUndefined,
				Count:  n,
			})
		}
	}
	return warnings
}
