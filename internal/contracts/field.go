package contracts

import (
	"fmt"
	"strings"
)

// Field identifies a named fundamental or market metric supplied by a data provider
// ⭐ SSOT: 필드 식별자는 여기서만 정의
type Field struct {
	Dataset string `json:"dataset" yaml:"dataset"` // e.g. "operation_ratios"
	Name    string `json:"name" yaml:"name"`       // e.g. "revenue_growth"
}

// ParseField splits a qualified name ("dataset.name") into a Field.
// A name without a dot is treated as a bare field with no dataset.
func ParseField(qualified string) (Field, error) {
	qualified = strings.TrimSpace(qualified)
	if qualified == "" {
		return Field{}, fmt.Errorf("%w: empty field name", ErrFieldNotFound)
	}

	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return Field{Name: qualified}, nil
	}
	if idx == len(qualified)-1 {
		return Field{}, fmt.Errorf("%w: %q", ErrFieldNotFound, qualified)
	}

	return Field{Dataset: qualified[:idx], Name: qualified[idx+1:]}, nil
}

// QualifiedName returns "dataset.name", or just the name for bare fields
func (f Field) QualifiedName() string {
	if f.Dataset == "" {
		return f.Name
	}
	return f.Dataset + "." + f.Name
}

// ShortName returns the field name with any namespace prefix stripped.
// Column names of historical series are derived from it.
func (f Field) ShortName() string {
	name := f.Name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// IsZero reports whether the field is unset
func (f Field) IsZero() bool {
	return f.Dataset == "" && f.Name == ""
}

// String implements fmt.Stringer
func (f Field) String() string {
	return f.QualifiedName()
}
