package contracts

import (
	"errors"
	"fmt"
)

// ⭐ SSOT: 쿼리 빌드/실행 에러 종류는 여기서만 정의
var (
	// ErrFieldNotFound is returned when a field name cannot be resolved by the catalog
	ErrFieldNotFound = errors.New("field not found")

	// ErrDivisionUndefined marks ratio outputs that are not finite (zero or missing denominator)
	ErrDivisionUndefined = errors.New("division undefined")

	// ErrDuplicateColumnName is returned by strict merges when two mappings share a column name
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrInvalidWindow is returned when an extractor receives a window it cannot read
	ErrInvalidWindow = errors.New("invalid window")
)

// Warning is a non-fatal condition reported alongside a result table
type Warning struct {
	Column string `json:"column"`
	Err    error  `json:"-"`
	Count  int    `json:"count"`
}

// Error implements error so a Warning can be matched with errors.Is
func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v (%d cells)", w.Column, w.Err, w.Count)
}

// Unwrap returns the underlying error kind
func (w Warning) Unwrap() error {
	return w.Err
}

// Kind returns the error kind as text (used by JSON output)
func (w Warning) Kind() string {
	if w.Err == nil {
		return ""
	}
	return w.Err.Error()
}
