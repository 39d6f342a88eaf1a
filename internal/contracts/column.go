package contracts

// ExtractorKind classifies how an extractor reads its input windows
type ExtractorKind string

const (
	// KindPointInTime reads one field and emits the oldest value of the window
	KindPointInTime ExtractorKind = "point_in_time"

	// KindRatio reads two fields and emits numerator/denominator of the oldest row
	KindRatio ExtractorKind = "ratio"
)

// Extractor turns windowed inputs into one value per asset
// ⭐ SSOT: 컬럼 계산 인터페이스는 여기서만
type Extractor interface {
	// Kind returns the extractor classification
	Kind() ExtractorKind

	// Inputs returns the fields whose windows Compute expects, in order
	Inputs() []Field

	// WindowLength returns the number of trailing sessions requested per input
	WindowLength() int

	// Compute writes one value per asset into out.
	// inputs[k] is the window of Inputs()[k]; all windows share the same shape.
	Compute(out []float64, inputs []Window) error
}

// Column is a named extractor
type Column struct {
	Name      string
	Extractor Extractor
}

// ColumnSet is an ordered name -> extractor mapping.
// Set on an existing name replaces the extractor and keeps the original position.
type ColumnSet struct {
	order []string
	index map[string]Extractor
}

// NewColumnSet creates an empty column set
func NewColumnSet() *ColumnSet {
	return &ColumnSet{
		order: make([]string, 0),
		index: make(map[string]Extractor),
	}
}

// Set adds or replaces a column. It reports whether the name already existed.
func (s *ColumnSet) Set(name string, ext Extractor) bool {
	if _, exists := s.index[name]; exists {
		s.index[name] = ext
		return true
	}
	s.order = append(s.order, name)
	s.index[name] = ext
	return false
}

// Get returns the extractor for a column name
func (s *ColumnSet) Get(name string) (Extractor, bool) {
	ext, ok := s.index[name]
	return ext, ok
}

// Has reports whether a column name is present
func (s *ColumnSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of columns
func (s *ColumnSet) Len() int {
	return len(s.order)
}

// Names returns column names in insertion order
func (s *ColumnSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Columns returns the columns in insertion order
func (s *ColumnSet) Columns() []Column {
	columns := make([]Column, len(s.order))
	for i, name := range s.order {
		columns[i] = Column{Name: name, Extractor: s.index[name]}
	}
	return columns
}

// MaxWindowLength returns the longest window any column requests for the field
func (s *ColumnSet) MaxWindowLength(field Field) int {
	longest := 0
	for _, name := range s.order {
		ext := s.index[name]
		for _, in := range ext.Inputs() {
			if in == field && ext.WindowLength() > longest {
				longest = ext.WindowLength()
			}
		}
	}
	return longest
}

// Fields returns the distinct input fields across all columns, first-seen order
func (s *ColumnSet) Fields() []Field {
	seen := make(map[Field]bool)
	fields := make([]Field, 0)
	for _, name := range s.order {
		for _, in := range s.index[name].Inputs() {
			if !seen[in] {
				seen[in] = true
				fields = append(fields, in)
			}
		}
	}
	return fields
}
