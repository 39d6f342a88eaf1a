package contracts

import (
	"time"
)

// ResultRow is one (date, asset) pair that survived the screen
type ResultRow struct {
	Date   time.Time `json:"date"`
	Asset  string    `json:"asset"`
	Values []float64 `json:"values"` // aligned with ResultTable.Columns
}

// ResultTable holds the output of one query run
// ⭐ SSOT: 실행 결과는 이 구조체로만 전달
type ResultTable struct {
	RunID      string      `json:"run_id"`
	QueryName  string      `json:"query_name"`
	ConfigHash string      `json:"config_hash,omitempty"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Columns    []string    `json:"columns"`
	Rows       []ResultRow `json:"rows"`
	Warnings   []Warning   `json:"-"`
}

// Len returns the number of rows
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1
func (t *ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell for a (date, asset, column) triple
func (t *ResultTable) Value(date time.Time, asset, column string) (float64, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return 0, false
	}
	for _, row := range t.Rows {
		if row.Asset == asset && row.Date.Equal(date) {
			return row.Values[idx], true
		}
	}
	return 0, false
}

// Assets returns the distinct assets in row order
func (t *ResultTable) Assets() []string {
	seen := make(map[string]bool)
	assets := make([]string, 0)
	for _, row := range t.Rows {
		if !seen[row.Asset] {
			seen[row.Asset] = true
			assets = append(assets, row.Asset)
		}
	}
	return assets
}

// Dates returns the distinct session dates in row order
func (t *ResultTable) Dates() []time.Time {
	dates := make([]time.Time, 0)
	for i, row := range t.Rows {
		if i > 0 && t.Rows[i-1].Date.Equal(row.Date) {
			continue
		}
		dates = append(dates, row.Date)
	}
	return dates
}

// TransposedTable has one row per column and one column per (date, asset)
type TransposedTable struct {
	Header []string    // "date asset" labels, one per original row
	Labels []string    // original column names, one per transposed row
	Cells  [][]float64 // Cells[i][j] = original row j, column i
}

// Transpose turns columns into rows for display
func (t *ResultTable) Transpose() *TransposedTable {
	tt := &TransposedTable{
		Header: make([]string, len(t.Rows)),
		Labels: make([]string, len(t.Columns)),
		Cells:  make([][]float64, len(t.Columns)),
	}

	for j, row := range t.Rows {
		tt.Header[j] = row.Date.Format("2006-01-02") + " " + row.Asset
	}

	copy(tt.Labels, t.Columns)
	for i := range t.Columns {
		cells := make([]float64, len(t.Rows))
		for j, row := range t.Rows {
			cells[j] = row.Values[i]
		}
		tt.Cells[i] = cells
	}

	return tt
}
