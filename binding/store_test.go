package binding

import (
	"math"
	"slices"
	"testing"
)

func loaded() *Store {
	s := NewStore()
	s.SetExcelData([]Row{
		{"Name": "Ada", "Course": "Math", "Score": 97.0},
		{"Name": "Lin", "Course": "Art", "Score": 88.5},
		{"Name": "Mo", "Course": nil},
	})
	s.SetColumnMappings([]Mapping{
		{ExcelColumn: "Name", PlaceholderField: "name"},
		{ExcelColumn: "Course", PlaceholderField: "course"},
		{ExcelColumn: "Score", PlaceholderField: "score"},
	})
	return s
}

func TestReplacementValueAt(t *testing.T) {
	s := loaded()
	tests := []struct {
		field string
		row   int
		want  string
	}{
		{"name", 0, "Ada"},
		{"course", 1, "Art"},
		{"score", 0, "97"},
		{"score", 1, "88.5"},
		{"course", 2, "{course}"}, // null cell
		{"score", 2, "{score}"},   // missing cell
		{"name", 3, "{name}"},     // out of range
		{"name", -1, "{name}"},
		{"date", 0, "{date}"}, // unmapped
	}
	for _, tt := range tests {
		if got := s.ReplacementValueAt(tt.field, tt.row); got != tt.want {
			t.Errorf("ReplacementValueAt(%q, %d) = %q, want %q", tt.field, tt.row, got, tt.want)
		}
	}
}

func TestReplacementValueIsPure(t *testing.T) {
	s := loaded()
	s.SetCurrentPreviewIndex(1)
	for range 3 {
		if s.ReplacementValueAt("name", 0) != "Ada" {
			t.Fatal("value changed between calls")
		}
	}
	if s.CurrentPreviewIndex() != 1 {
		t.Error("resolution must not move the cursor")
	}
	if s.ReplacementValue("name") != "Lin" {
		t.Error("ReplacementValue follows the cursor")
	}
}

func TestNoData(t *testing.T) {
	s := NewStore()
	s.SetColumnMappings([]Mapping{{ExcelColumn: "Name", PlaceholderField: "name"}})
	if got := s.ReplacementValue("name"); got != "{name}" {
		t.Errorf("got %q", got)
	}
}

func TestFirstMappingWins(t *testing.T) {
	s := loaded()
	s.SetColumnMappings([]Mapping{
		{ExcelColumn: "Course", PlaceholderField: "name"},
		{ExcelColumn: "Name", PlaceholderField: "name"},
	})
	if got := s.ReplacementValueAt("name", 0); got != "Math" {
		t.Errorf("got %q", got)
	}
}

func TestCursor(t *testing.T) {
	s := loaded()
	tests := []struct {
		name string
		op   func()
		want int
	}{
		{"previous at start", s.PreviousPreview, 0},
		{"next", s.NextPreview, 1},
		{"next", s.NextPreview, 2},
		{"next at end", s.NextPreview, 2},
		{"previous", s.PreviousPreview, 1},
		{"set past end clamps", func() { s.SetCurrentPreviewIndex(10) }, 2},
		{"set negative clamps", func() { s.SetCurrentPreviewIndex(-4) }, 0},
		{"shrinking data clamps", func() { s.SetCurrentPreviewIndex(2); s.SetExcelData([]Row{{"Name": "x"}}) }, 0},
	}
	for _, tt := range tests {
		tt.op()
		if got := s.CurrentPreviewIndex(); got != tt.want {
			t.Errorf("%s: cursor = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestUpdateColumnMapping(t *testing.T) {
	s := loaded()
	s.UpdateColumnMapping(1, Mapping{ExcelColumn: "Course", PlaceholderField: "achievement"})
	if s.ReplacementValueAt("achievement", 0) != "Math" || s.ReplacementValueAt("course", 0) != "{course}" {
		t.Error("mapping not replaced")
	}
	before := s.Mappings()
	s.UpdateColumnMapping(9, Mapping{ExcelColumn: "X", PlaceholderField: "x"})
	s.UpdateColumnMapping(-1, Mapping{ExcelColumn: "X", PlaceholderField: "x"})
	if !slices.Equal(before, s.Mappings()) {
		t.Error("out of range updates must be ignored")
	}
}

func TestMappingsAreCopied(t *testing.T) {
	s := loaded()
	m := s.Mappings()
	m[0].PlaceholderField = "changed"
	if s.ReplacementValueAt("name", 0) != "Ada" {
		t.Error("Mappings leaks internal state")
	}
}

func TestClearData(t *testing.T) {
	s := loaded()
	s.SetHasHeaderRow(false)
	s.SetCurrentPreviewIndex(2)
	s.ClearData()
	if s.RowCount() != 0 || len(s.Mappings()) != 0 || s.CurrentPreviewIndex() != 0 {
		t.Error("ClearData")
	}
	if s.HasHeaderRow() {
		t.Error("the header flag survives ClearData")
	}
}

func TestUnboundFields(t *testing.T) {
	s := loaded()
	got := s.UnboundFields([]string{"name", "date", "course", "instructor"})
	if !slices.Equal(got, []string{"date", "instructor"}) {
		t.Errorf("got %v", got)
	}
}

func TestDefaultMappings(t *testing.T) {
	got := DefaultMappings([]string{"A", "B", "C", "D", "E", "F"})
	want := []string{"name", "date", "course", "instructor", "achievement", ""}
	for i, m := range got {
		if m.PlaceholderField != want[i] {
			t.Errorf("column %d -> %q, want %q", i, m.PlaceholderField, want[i])
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{42.0, "42"},
		{3.25, "3.25"},
		{float32(1.5), "1.5"},
		{7, "7"},
		{int64(-3), "-3"},
		{true, "true"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
		{1e21, "1000000000000000000000"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
