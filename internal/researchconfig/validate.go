package researchconfig

import (
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/universe"
)

// DefaultSessionsPerQuarter is the fixed quarter step
const DefaultSessionsPerQuarter = 64

// Upper bounds on history depth. Quarter indexes stay two digits (_Q00.._Q98) and the
// longest window stays within MaxQuarters*MaxSessionsPerQuarter rows.
const (
	MaxQuarters           = 99
	MaxSessionsPerQuarter = 252
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.QueryID == "" {
		return ValidationError{"meta.query_id", "required"}
	}

	// === Universe ===
	if cfg.Universe.Base != BaseLiquid && cfg.Universe.Base != BaseAll {
		return ValidationError{"universe.base", fmt.Sprintf("must be %q or %q", BaseLiquid, BaseAll)}
	}
	if cfg.Universe.IndustryCode < 0 {
		return ValidationError{"universe.industry_code", "must be > 0"}
	}
	if cfg.Universe.IndustryCode == 0 && cfg.Universe.Industry != "" {
		if _, err := universe.LookupIndustry(cfg.Universe.Industry); err != nil {
			return ValidationError{"universe.industry", err.Error()}
		}
	}

	// === Instant columns ===
	names := make(map[string]bool)
	for i, c := range cfg.InstantColumns {
		path := fmt.Sprintf("instant_columns[%d]", i)
		if c.Name == "" {
			return ValidationError{path + ".name", "required"}
		}
		if names[c.Name] {
			return ValidationError{path + ".name", fmt.Sprintf("duplicate column %q", c.Name)}
		}
		names[c.Name] = true

		if err := validateInputs(path, c.Field, c.Numerator, c.Denominator); err != nil {
			return err
		}
	}

	// === History ===
	if cfg.History.Quarters < 0 || cfg.History.Quarters > MaxQuarters {
		return ValidationError{"history.quarters", fmt.Sprintf("must be in [0, %d]", MaxQuarters)}
	}
	if cfg.History.SessionsPerQuarter <= 0 || cfg.History.SessionsPerQuarter > MaxSessionsPerQuarter {
		return ValidationError{"history.sessions_per_quarter", fmt.Sprintf("must be in [1, %d]", MaxSessionsPerQuarter)}
	}

	bases := make(map[string]bool)
	for i, s := range cfg.History.Series {
		path := fmt.Sprintf("history.series[%d]", i)
		if err := validateInputs(path, s.Field, s.Numerator, s.Denominator); err != nil {
			return err
		}
		if s.IsRatio() && s.Name == "" {
			return ValidationError{path + ".name", "required for ratio series"}
		}

		base := SeriesBase(s)
		if bases[base] {
			return ValidationError{path, fmt.Sprintf("duplicate series %q", base)}
		}
		bases[base] = true
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 분기 = 64 세션 고정 (달력 보정 없음)
	if cfg.History.SessionsPerQuarter != DefaultSessionsPerQuarter {
		warnings = append(warnings, Warning{
			Code:    "NONSTANDARD_QUARTER",
			Message: fmt.Sprintf("sessions_per_quarter=%d, standard is %d", cfg.History.SessionsPerQuarter, DefaultSessionsPerQuarter),
		})
	}

	if cfg.Universe.IndustryCode > 0 {
		warnings = append(warnings, Warning{
			Code:    "RAW_INDUSTRY_CODE",
			Message: fmt.Sprintf("industry_code=%d overrides named industry %q", cfg.Universe.IndustryCode, cfg.Universe.Industry),
		})
	}

	if cfg.Universe.Base == BaseAll {
		warnings = append(warnings, Warning{
			Code:    "UNFILTERED_BASE",
			Message: "universe.base=all skips the liquidity screen",
		})
	}

	return warnings
}

// SeriesBase returns the column-name base of a series
func SeriesBase(s Series) string {
	if s.Name != "" {
		return s.Name
	}
	f, err := contracts.ParseField(s.Field)
	if err != nil {
		return s.Field
	}
	return f.ShortName()
}

// validateInputs requires exactly one of field or numerator+denominator
func validateInputs(path, field, numerator, denominator string) error {
	isRatio := numerator != "" || denominator != ""
	switch {
	case field != "" && isRatio:
		return ValidationError{path, "field and numerator/denominator are mutually exclusive"}
	case field == "" && !isRatio:
		return ValidationError{path, "field or numerator/denominator required"}
	case isRatio && (numerator == "" || denominator == ""):
		return ValidationError{path, "ratio needs both numerator and denominator"}
	}

	for _, name := range []string{field, numerator, denominator} {
		if name == "" {
			continue
		}
		if _, err := contracts.ParseField(name); err != nil {
			return ValidationError{path, err.Error()}
		}
	}
	return nil
}
