package assembler

import (
	"fmt"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/factor"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
)

// Assembler builds a Query (screen + named columns) from a research config
// ⭐ SSOT: 쿼리 조립은 여기서만
type Assembler struct {
	catalog contracts.FieldCatalog
	logger  *logger.Logger
}

// New creates a new assembler. Field names are resolved through catalog.
func New(catalog contracts.FieldCatalog, log *logger.Logger) *Assembler {
	return &Assembler{
		catalog: catalog,
		logger:  log.WithComponent("assembler").WithField("stage", contracts.StageAssemble),
	}
}

// Build resolves every field, builds the screen and columns, and strict-merges them.
// Unknown fields wrap contracts.ErrFieldNotFound; colliding names wrap
// contracts.ErrDuplicateColumnName.
func (a *Assembler) Build(cfg *researchconfig.Config) (*contracts.Query, error) {
	if err := researchconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid research config: %w", err)
	}
	for _, w := range researchconfig.Warn(cfg) {
		a.logger.WithField("code", w.Code).Warn(w.Message)
	}

	screen, err := a.buildScreen(cfg.Universe)
	if err != nil {
		return nil, fmt.Errorf("build screen: %w", err)
	}

	instant, err := a.buildInstant(cfg.InstantColumns)
	if err != nil {
		return nil, fmt.Errorf("build instant columns: %w", err)
	}

	series, err := a.buildSeries(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}

	columns, err := factor.MergeStrict(append([]*contracts.ColumnSet{instant}, series...)...)
	if err != nil {
		return nil, err
	}

	hash, err := researchconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	query := &contracts.Query{
		Name:       cfg.Meta.QueryID,
		Screen:     screen,
		Columns:    columns,
		ConfigHash: hash,
	}

	a.logger.WithFields(map[string]interface{}{
		"query":    query.Name,
		"screen":   screen.Describe(),
		"columns":  query.ColumnCount(),
		"quarters": cfg.History.Quarters,
	}).Info("Query assembled")

	return query, nil
}

// buildScreen returns base ∩ (industry code == code)
func (a *Assembler) buildScreen(u researchconfig.Universe) (contracts.Filter, error) {
	filters := make([]contracts.Filter, 0, 2)
	switch u.Base {
	case researchconfig.BaseAll:
		filters = append(filters, universe.AllAssets{})
	default:
		filters = append(filters, universe.LiquidUniverse{})
	}

	code := u.IndustryCode
	if code == 0 && u.Industry != "" {
		ind, err := universe.LookupIndustry(u.Industry)
		if err != nil {
			return nil, err
		}
		code = ind.Code
	}
	if code == 0 {
		return universe.And(filters...), nil
	}

	field, err := a.catalog.Field(universe.IndustryCodeField.QualifiedName())
	if err != nil {
		return nil, err
	}
	filters = append(filters, universe.Equals{Field: field, Value: float64(code)})

	return universe.And(filters...), nil
}

func (a *Assembler) buildInstant(cols []researchconfig.InstantColumn) (*contracts.ColumnSet, error) {
	set := contracts.NewColumnSet()
	for _, c := range cols {
		if !c.IsRatio() {
			field, err := a.catalog.Field(c.Field)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			set.Set(c.Name, factor.NewLatest(field))
			continue
		}

		num, den, err := a.resolvePair(c.Numerator, c.Denominator)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		set.Set(c.Name, factor.NewLatestRatio(num, den))
	}
	return set, nil
}

func (a *Assembler) buildSeries(h researchconfig.History) ([]*contracts.ColumnSet, error) {
	builder := factor.SeriesBuilder{SessionsPerQuarter: h.SessionsPerQuarter}
	sets := make([]*contracts.ColumnSet, 0, len(h.Series))

	for _, s := range h.Series {
		base := researchconfig.SeriesBase(s)
		if !s.IsRatio() {
			field, err := a.catalog.Field(s.Field)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", base, err)
			}
			sets = append(sets, builder.Named(base, field, h.Quarters))
			continue
		}

		num, den, err := a.resolvePair(s.Numerator, s.Denominator)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", base, err)
		}
		sets = append(sets, builder.Ratio(base, num, den, h.Quarters))
	}
	return sets, nil
}

func (a *Assembler) resolvePair(numerator, denominator string) (contracts.Field, contracts.Field, error) {
	num, err := a.catalog.Field(numerator)
	if err != nil {
		return contracts.Field{}, contracts.Field{}, err
	}
	den, err := a.catalog.Field(denominator)
	if err != nil {
		return contracts.Field{}, contracts.Field{}, err
	}
	return num, den, nil
}
