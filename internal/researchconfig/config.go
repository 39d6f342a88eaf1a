package researchconfig

// Config는 팩터 리서치 쿼리의 전체 설정
type Config struct {
	Meta           Meta            `yaml:"meta" json:"meta"`
	Universe       Universe        `yaml:"universe" json:"universe"`
	InstantColumns []InstantColumn `yaml:"instant_columns" json:"instant_columns"`
	History        History         `yaml:"history" json:"history"`
}

// Meta 메타 정보
type Meta struct {
	QueryID     string `yaml:"query_id" json:"query_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Base universe options
const (
	BaseLiquid = "liquid" // 유동성/커버리지 유니버스
	BaseAll    = "all"
)

// Universe 스크린 정의: base ∩ (industry code == code)
type Universe struct {
	Base     string `yaml:"base" json:"base"`
	Industry string `yaml:"industry" json:"industry"`

	// IndustryCode overrides the named option (0 = use Industry)
	IndustryCode int64 `yaml:"industry_code,omitempty" json:"industry_code,omitempty"`
}

// InstantColumn is a latest-value column (Field) or a latest ratio (Numerator / Denominator)
type InstantColumn struct {
	Name        string `yaml:"name" json:"name"`
	Field       string `yaml:"field,omitempty" json:"field,omitempty"`
	Numerator   string `yaml:"numerator,omitempty" json:"numerator,omitempty"`
	Denominator string `yaml:"denominator,omitempty" json:"denominator,omitempty"`
}

// IsRatio reports whether the column divides two fields
func (c InstantColumn) IsRatio() bool {
	return c.Numerator != "" || c.Denominator != ""
}

// History 분기별 과거값 시계열
type History struct {
	Quarters           int      `yaml:"quarters" json:"quarters"`
	SessionsPerQuarter int      `yaml:"sessions_per_quarter" json:"sessions_per_quarter"`
	Series             []Series `yaml:"series" json:"series"`
}

// Series is one quarterly history. A single-field series is named after the field's
// short name unless Name is set; a ratio series requires Name.
type Series struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Field       string `yaml:"field,omitempty" json:"field,omitempty"`
	Numerator   string `yaml:"numerator,omitempty" json:"numerator,omitempty"`
	Denominator string `yaml:"denominator,omitempty" json:"denominator,omitempty"`
}

// IsRatio reports whether the series divides two fields
func (s Series) IsRatio() bool {
	return s.Numerator != "" || s.Denominator != ""
}

// Default returns the airline fundamentals query: liquid ∩ airline, four instant
// columns and twelve quarters of five series.
func Default() *Config {
	return &Config{
		Meta: Meta{
			QueryID: "industry_fundamentals",
			Version: "1",
		},
		Universe: Universe{
			Base:     BaseLiquid,
			Industry: "airline",
		},
		InstantColumns: []InstantColumn{
			{Name: "_ev_to_ebitda", Field: "valuation_ratios.ev_to_ebitda"},
			{Name: "_pe_ratio", Field: "valuation_ratios.pe_ratio"},
			{Name: "_ev_sales_ratio", Numerator: "valuation.enterprise_value", Denominator: "income_statement.total_revenue"},
			{Name: "_payout_ratio", Field: "valuation_ratios.payout_ratio"},
		},
		History: History{
			Quarters:           12,
			SessionsPerQuarter: 64,
			Series: []Series{
				{Field: "operation_ratios.revenue_growth"},
				{Field: "operation_ratios.long_term_debt_equity_ratio"},
				{Field: "earnings_ratios.diluted_cont_eps_growth"},
				{Field: "valuation_ratios.buy_back_yield"},
				{Name: "debt_cash_ratio", Numerator: "balance_sheet.long_term_debt", Denominator: "balance_sheet.cash_and_cash_equivalents"},
			},
		},
	}
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.InstantColumns = append([]InstantColumn(nil), c.InstantColumns...)
	out.History.Series = append([]Series(nil), c.History.Series...)
	return &out
}

// WithOverrides returns a copy with a different industry and/or quarter depth.
// Empty industry or quarters < 0 keeps the current value.
func (c *Config) WithOverrides(industry string, quarters int) *Config {
	out := c.Clone()
	if industry != "" {
		out.Universe.Industry = industry
		out.Universe.IndustryCode = 0
	}
	if quarters >= 0 {
		out.History.Quarters = quarters
	}
	return out
}
