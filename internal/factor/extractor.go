package factor

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-research/internal/contracts"
)

// PointInTimeExtractor emits the oldest value of a single-field window per asset.
// With window length i*64+1 this reads the value as of roughly i quarters ago;
// the remaining rows are fetched but not read.
// ⭐ SSOT: 과거 시점 값 추출은 여기서만
type PointInTimeExtractor struct {
	field        contracts.Field
	windowLength int
}

// NewPointInTime creates a point-in-time extractor
func NewPointInTime(field contracts.Field, windowLength int) *PointInTimeExtractor {
	return &PointInTimeExtractor{field: field, windowLength: windowLength}
}

// NewLatest reads today's value (window length 1)
func NewLatest(field contracts.Field) *PointInTimeExtractor {
	return NewPointInTime(field, 1)
}

// Kind implements contracts.Extractor
func (e *PointInTimeExtractor) Kind() contracts.ExtractorKind {
	return contracts.KindPointInTime
}

// Inputs implements contracts.Extractor
func (e *PointInTimeExtractor) Inputs() []contracts.Field {
	return []contracts.Field{e.field}
}

// WindowLength implements contracts.Extractor
func (e *PointInTimeExtractor) WindowLength() int {
	return e.windowLength
}

// Field returns the input field
func (e *PointInTimeExtractor) Field() contracts.Field {
	return e.field
}

// Compute copies row 0 of the window into out
func (e *PointInTimeExtractor) Compute(out []float64, inputs []contracts.Window) error {
	if len(inputs) != 1 {
		return fmt.Errorf("%w: point-in-time %s expects 1 input, got %d",
			contracts.ErrInvalidWindow, e.field, len(inputs))
	}

	values := inputs[0]
	if err := checkShape(values, len(out)); err != nil {
		return err
	}

	copy(out, values.Oldest())
	return nil
}

// RatioExtractor emits numerator/denominator of the oldest row per asset.
// A zero or missing denominator yields NaN rather than an error.
type RatioExtractor struct {
	numerator    contracts.Field
	denominator  contracts.Field
	windowLength int
}

// NewRatio creates a ratio extractor
func NewRatio(numerator, denominator contracts.Field, windowLength int) *RatioExtractor {
	return &RatioExtractor{
		numerator:    numerator,
		denominator:  denominator,
		windowLength: windowLength,
	}
}

// NewLatestRatio divides today's values (window length 1)
func NewLatestRatio(numerator, denominator contracts.Field) *RatioExtractor {
	return NewRatio(numerator, denominator, 1)
}

// Kind implements contracts.Extractor
func (e *RatioExtractor) Kind() contracts.ExtractorKind {
	return contracts.KindRatio
}

// Inputs implements contracts.Extractor (numerator first)
func (e *RatioExtractor) Inputs() []contracts.Field {
	return []contracts.Field{e.numerator, e.denominator}
}

// WindowLength implements contracts.Extractor
func (e *RatioExtractor) WindowLength() int {
	return e.windowLength
}

// Compute writes numerator[0][j] / denominator[0][j] into out
func (e *RatioExtractor) Compute(out []float64, inputs []contracts.Window) error {
	if len(inputs) != 2 {
		return fmt.Errorf("%w: ratio %s/%s expects 2 inputs, got %d",
			contracts.ErrInvalidWindow, e.numerator, e.denominator, len(inputs))
	}

	num, den := inputs[0], inputs[1]
	if err := checkShape(num, len(out)); err != nil {
		return err
	}
	if err := checkShape(den, len(out)); err != nil {
		return err
	}
	if num.Len() != den.Len() {
		return fmt.Errorf("%w: ratio windows differ in length (%d vs %d)",
			contracts.ErrInvalidWindow, num.Len(), den.Len())
	}

	n, d := num.Oldest(), den.Oldest()
	for j := range out {
		out[j] = divide(n[j], d[j])
	}
	return nil
}

// divide returns NaN for undefined quotients (x/0, NaN operands)
func divide(n, d float64) float64 {
	if d == 0 || math.IsNaN(d) || math.IsNaN(n) {
		return math.NaN()
	}
	return n / d
}

// CountNonFinite counts NaN and ±Inf cells
func CountNonFinite(values []float64) int {
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			count++
		}
	}
	return count
}

func checkShape(w contracts.Window, width int) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.Width() != width {
		return fmt.Errorf("%w: %s has %d assets, output has %d",
			contracts.ErrInvalidWindow, w.Field, w.Width(), width)
	}
	return nil
}
