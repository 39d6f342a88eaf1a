package contracts

import (
	"fmt"
	"math"
)

// Window is a trailing block of per-asset values for one field.
// Rows are ordered oldest-first: Values[0] is the oldest session delivered,
// Values[Len()-1] is the as-of session. Each row has one value per asset.
// Cells with no observation up to that session are NaN.
type Window struct {
	Field  Field       `json:"field"`
	Assets []string    `json:"assets"`
	Values [][]float64 `json:"values"`
}

// NewWindow allocates a NaN-filled window of the given length
func NewWindow(field Field, assets []string, length int) Window {
	values := make([][]float64, length)
	for i := range values {
		row := make([]float64, len(assets))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	return Window{Field: field, Assets: assets, Values: values}
}

// Len returns the number of sessions in the window
func (w Window) Len() int {
	return len(w.Values)
}

// Width returns the number of assets
func (w Window) Width() int {
	return len(w.Assets)
}

// Row returns the i-th session row (0 = oldest)
func (w Window) Row(i int) []float64 {
	return w.Values[i]
}

// Oldest returns the first row of the delivered buffer
func (w Window) Oldest() []float64 {
	return w.Values[0]
}

// Latest returns the as-of row
func (w Window) Latest() []float64 {
	return w.Values[len(w.Values)-1]
}

// Tail returns a window over the last n sessions. The rows share memory with w.
// If n exceeds the window length the whole window is returned.
func (w Window) Tail(n int) Window {
	if n >= len(w.Values) {
		return w
	}
	if n < 0 {
		n = 0
	}
	return Window{
		Field:  w.Field,
		Assets: w.Assets,
		Values: w.Values[len(w.Values)-n:],
	}
}

// Select returns a window restricted to the given asset positions
func (w Window) Select(positions []int) Window {
	assets := make([]string, len(positions))
	for k, p := range positions {
		assets[k] = w.Assets[p]
	}

	values := make([][]float64, len(w.Values))
	for i, row := range w.Values {
		selected := make([]float64, len(positions))
		for k, p := range positions {
			selected[k] = row[p]
		}
		values[i] = selected
	}

	return Window{Field: w.Field, Assets: assets, Values: values}
}

// Validate checks that the window is non-empty and rectangular
func (w Window) Validate() error {
	if len(w.Values) == 0 {
		return fmt.Errorf("%w: %s has no sessions", ErrInvalidWindow, w.Field)
	}
	for i, row := range w.Values {
		if len(row) != len(w.Assets) {
			return fmt.Errorf("%w: %s row %d has %d values for %d assets",
				ErrInvalidWindow, w.Field, i, len(row), len(w.Assets))
		}
	}
	return nil
}
