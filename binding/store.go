// Package binding holds the imported tabular data, the column-to-field mappings and the
// preview cursor, and resolves placeholder fields against them.
package binding

import "github.com/zeptools/certmerge/elements"

// Row - one record of the imported dataset, keyed by column name.
// Values are strings or numbers.
type Row map[string]any

// Mapping binds an imported column to a placeholder field. An empty field leaves the column unused.
type Mapping struct {
	ExcelColumn      string `json:"excelColumn"`
	PlaceholderField string `json:"placeholderField"`
}

// Store is not safe for concurrent use; see package scene.
type Store struct {
	rows         []Row
	mappings     []Mapping
	hasHeaderRow bool
	cursor       int
}

func NewStore() *Store {
	return &Store{hasHeaderRow: true}
}

func (s *Store) SetExcelData(rows []Row) {
	s.rows = rows
	s.clampCursor()
}

func (s *Store) SetColumnMappings(mappings []Mapping) {
	s.mappings = append([]Mapping(nil), mappings...)
}

func (s *Store) SetHasHeaderRow(hasHeader bool) { s.hasHeaderRow = hasHeader }

// UpdateColumnMapping replaces the mapping at index i. Positions follow the imported column order.
func (s *Store) UpdateColumnMapping(i int, m Mapping) {
	if i < 0 || i >= len(s.mappings) {
		s.noop("UpdateColumnMapping", i)
		return
	}
	s.mappings[i] = m
}

// SetCurrentPreviewIndex moves the cursor, clamped to [0, RowCount-1].
func (s *Store) SetCurrentPreviewIndex(i int) {
	s.cursor = i
	s.clampCursor()
}

func (s *Store) NextPreview() {
	if s.cursor < len(s.rows)-1 {
		s.cursor++
	}
}

func (s *Store) PreviousPreview() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// ClearData drops rows and mappings and rewinds the cursor. The header flag is kept.
func (s *Store) ClearData() {
	s.rows = nil
	s.mappings = nil
	s.cursor = 0
}

func (s *Store) clampCursor() {
	if s.cursor > len(s.rows)-1 {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

//---- Getters ----

func (s *Store) RowCount() int            { return len(s.rows) }
func (s *Store) CurrentPreviewIndex() int { return s.cursor }
func (s *Store) HasHeaderRow() bool       { return s.hasHeaderRow }
func (s *Store) Mappings() []Mapping      { return append([]Mapping(nil), s.mappings...) }
func (s *Store) Rows() []Row              { return append([]Row(nil), s.rows...) }
func (s *Store) Row(i int) (Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return nil, false
	}
	return s.rows[i], true
}

// Columns returns the mapped column names in mapping order
func (s *Store) Columns() []string {
	cols := make([]string, len(s.mappings))
	for i, m := range s.mappings {
		cols[i] = m.ExcelColumn
	}
	return cols
}

//---- Resolution ----

// Marker is what an unresolved field displays: the field wrapped in braces.
func Marker(field string) string { return "{" + field + "}" }

// ReplacementValue resolves field against the row under the preview cursor.
func (s *Store) ReplacementValue(field string) string {
	return s.ReplacementValueAt(field, s.cursor)
}

// ReplacementValueAt resolves field against row i. It never fails: no data, an out of range row,
// a field without mapping or a missing column all yield Marker(field).
// The interactive preview and the batch pipeline both go through here.
func (s *Store) ReplacementValueAt(field string, i int) string {
	if len(s.rows) == 0 || i < 0 || i >= len(s.rows) {
		return Marker(field)
	}
	m, ok := s.mappingFor(field)
	if !ok {
		return Marker(field)
	}
	v, ok := s.rows[i][m.ExcelColumn]
	if !ok || v == nil {
		return Marker(field)
	}
	return Stringify(v)
}

// first mapping wins when several target the same field
func (s *Store) mappingFor(field string) (Mapping, bool) {
	for _, m := range s.mappings {
		if m.PlaceholderField == field {
			return m, true
		}
	}
	return Mapping{}, false
}

// UnboundFields returns, in order, the fields no mapping targets.
func (s *Store) UnboundFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if _, ok := s.mappingFor(f); !ok {
			out = append(out, f)
		}
	}
	return out
}

// DefaultMappings pairs imported columns, in order, with the common placeholder fields.
// Columns past the common fields get an empty field.
func DefaultMappings(columns []string) []Mapping {
	out := make([]Mapping, len(columns))
	for i, c := range columns {
		out[i] = Mapping{ExcelColumn: c}
		if i < len(elements.CommonFields) {
			out[i].PlaceholderField = elements.CommonFields[i]
		}
	}
	return out
}
