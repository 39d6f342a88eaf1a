package render

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
)

// Document is the JSON form of a ResultTable. Non-finite values are null.
type Document struct {
	RunID      string        `json:"run_id"`
	QueryName  string        `json:"query_name"`
	ConfigHash string        `json:"config_hash,omitempty"`
	Start      string        `json:"start"`
	End        string        `json:"end"`
	Columns    []string      `json:"columns"`
	Rows       []DocumentRow `json:"rows"`
	Warnings   []DocWarning  `json:"warnings,omitempty"`
}

// DocumentRow is one (date, asset) row
type DocumentRow struct {
	Date   string     `json:"date"`
	Asset  string     `json:"asset"`
	Values []*float64 `json:"values"`
}

// DocWarning is a serialized contracts.Warning
type DocWarning struct {
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
}

const dateLayout = "2006-01-02"

// NewDocument converts a result table
func NewDocument(t *contracts.ResultTable) *Document {
	doc := &Document{
		RunID:      t.RunID,
		QueryName:  t.QueryName,
		ConfigHash: t.ConfigHash,
		Start:      t.Start.Format(dateLayout),
		End:        t.End.Format(dateLayout),
		Columns:    t.Columns,
		Rows:       make([]DocumentRow, len(t.Rows)),
	}

	for i, r := range t.Rows {
		values := make([]*float64, len(r.Values))
		for j, v := range r.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			values[j] = &v
		}
		doc.Rows[i] = DocumentRow{Date: r.Date.Format(dateLayout), Asset: r.Asset, Values: values}
	}

	for _, w := range t.Warnings {
		doc.Warnings = append(doc.Warnings, DocWarning{Column: w.Column, Kind: w.Kind(), Count: w.Count})
	}
	return doc
}

// Table converts the document back into a result table (null -> NaN).
// Warning kinds other than division are restored without a sentinel.
func (d *Document) Table() (*contracts.ResultTable, error) {
	start, err := time.Parse(dateLayout, d.Start)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(dateLayout, d.End)
	if err != nil {
		return nil, err
	}

	t := &contracts.ResultTable{
		RunID:      d.RunID,
		QueryName:  d.QueryName,
		ConfigHash: d.ConfigHash,
		Start:      start,
		End:        end,
		Columns:    d.Columns,
		Rows:       make([]contracts.ResultRow, len(d.Rows)),
	}

	for i, r := range d.Rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(r.Values))
		for j, v := range r.Values {
			values[j] = math.NaN()
			if v != nil {
				values[j] = *v
			}
		}
		t.Rows[i] = contracts.ResultRow{Date: date, Asset: r.Asset, Values: values}
	}

	for _, w := range d.Warnings {
		warning := contracts.Warning{Column: w.Column, Count: w.Count}
		if w.Kind == contracts.ErrDivisionUndefined.Error() {
			warning.Err = contracts.ErrDivisionUndefined
		}
		t.Warnings = append(t.Warnings, warning)
	}
	return t, nil
}

// JSON writes the result as indented JSON
func JSON(w io.Writer, t *contracts.ResultTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(t))
}
