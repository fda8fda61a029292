package placeholders

import (
	"slices"
	"testing"

	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/elements"
)

func source() *binding.Store {
	s := binding.NewStore()
	s.SetExcelData([]binding.Row{
		{"Name": "Ada", "Course": "Math"},
		{"Name": "Lin", "Course": "{course}"},
	})
	s.SetColumnMappings([]binding.Mapping{
		{ExcelColumn: "Name", PlaceholderField: "name"},
		{ExcelColumn: "Course", PlaceholderField: "course"},
	})
	return s
}

func text(s string, hasPlaceholder bool) *elements.Text {
	t := elements.NewText("t", elements.SizeA4, 0)
	t.Text = s
	t.HasPlaceholder = hasPlaceholder
	return t
}

func TestDisplay(t *testing.T) {
	src := source()
	ph := elements.NewPlaceholder("p", elements.SizeA4, 0, "course")
	tests := []struct {
		name string
		e    elements.Element
		row  int
		want string
	}{
		{"text with tokens", text("Hello {name}, welcome to {course}", true), 0, "Hello Ada, welcome to Math"},
		{"tokens off is verbatim", text("Hello {name}, welcome to {course}", false), 0, "Hello {name}, welcome to {course}"},
		{"unknown token keeps marker", text("Dear {name} {title}", true), 0, "Dear Ada {title}"},
		{"values are not rescanned", text("{course}", true), 1, "{course}"},
		{"repeated token", text("{name}/{name}", true), 1, "Lin/Lin"},
		{"empty braces are literal", text("a {} b", true), 0, "a {} b"},
		{"placeholder", ph, 0, "Math"},
		{"placeholder out of range", ph, 5, "{course}"},
		{"image shows nothing", elements.NewImage("i", elements.SizeA4, 0, "x.png"), 0, ""},
		{"shape shows nothing", elements.NewShape("s", elements.SizeA4, 0, elements.ShapeLine), 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.e, tt.row, src); got != tt.want {
				t.Errorf("Display = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFields(t *testing.T) {
	got := Fields("{a} and {b c} and {a} {}")
	if !slices.Equal(got, []string{"a", "b c", "a"}) {
		t.Errorf("Fields = %q", got)
	}
}

func TestTemplateFields(t *testing.T) {
	top := elements.NewPlaceholder("p", elements.SizeA4, 2, "name")
	mid := text("{course} by {instructor} for {name}", true)
	mid.ZIndex = 1
	off := text("{ignored}", false)
	off.ZIndex = 0
	got := TemplateFields(elements.List{top, mid, off})
	if !slices.Equal(got, []string{"course", "instructor", "name"}) {
		t.Errorf("TemplateFields = %q", got)
	}
}
