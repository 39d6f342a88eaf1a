package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wonny/aegis-research/internal/contracts"
)

// Options controls table output
type Options struct {
	// Precision is the number of decimals for values
	Precision int
	// Transpose prints one row per column and one column per (date, asset)
	Transpose bool
}

// DefaultOptions prints the transposed view with 4 decimals
var DefaultOptions = Options{Precision: 4, Transpose: true}

// Table writes the result as a markdown table followed by a summary line
func Table(w io.Writer, t *contracts.ResultTable, opts Options) error {
	if t.Len() == 0 {
		_, err := fmt.Fprintf(w, "_Columns: %d_\n\n_No rows_\n", len(t.Columns))
		return err
	}

	var headers []string
	var rows [][]string
	if opts.Transpose {
		headers, rows = transposed(t, opts.Precision)
	} else {
		headers, rows = flat(t, opts.Precision)
	}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	if _, err := fmt.Fprintf(w, "\n_%d rows x %d columns_\n", t.Len(), len(t.Columns)); err != nil {
		return err
	}
	for _, warn := range t.Warnings {
		if _, err := fmt.Fprintf(w, "_warning: %s_\n", warn.Error()); err != nil {
			return err
		}
	}
	return nil
}

func transposed(t *contracts.ResultTable, precision int) ([]string, [][]string) {
	tt := t.Transpose()

	headers := append([]string{"column"}, tt.Header...)
	rows := make([][]string, len(tt.Labels))
	for i, label := range tt.Labels {
		row := make([]string, 0, len(tt.Cells[i])+1)
		row = append(row, label)
		for _, v := range tt.Cells[i] {
			row = append(row, FormatValue(v, precision))
		}
		rows[i] = row
	}
	return headers, rows
}

func flat(t *contracts.ResultTable, precision int) ([]string, [][]string) {
	headers := append([]string{"date", "asset"}, t.Columns...)
	rows := make([][]string, len(t.Rows))
	for j, r := range t.Rows {
		row := make([]string, 0, len(r.Values)+2)
		row = append(row, r.Date.Format("2006-01-02"), r.Asset)
		for _, v := range r.Values {
			row = append(row, FormatValue(v, precision))
		}
		rows[j] = row
	}
	return headers, rows
}

// FormatValue prints NaN as "NaN", infinities as "+Inf"/"-Inf", otherwise fixed decimals
func FormatValue(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return s[1:] // "-0.0000"
	}
	return s
}
