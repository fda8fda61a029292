package elements

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	orig := NewText("t1", SizeA4, 0)
	orig.Shadow = &Shadow{Color: "#000", Blur: 4}
	c := Clone(orig).(*Text)
	c.Text = "changed"
	c.Shadow.Blur = 10
	c.X = 1
	if orig.Text != DefaultText || orig.Shadow.Blur != 4 || orig.X == 1 {
		t.Errorf("clone shares state with the original: %+v", orig)
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestConstructorDefaults(t *testing.T) {
	canvas := Size{Width: 1000, Height: 600}
	tests := []struct {
		name       string
		e          Element
		wantW      float64
		wantH      float64
		wantZ      int
		wantX      float64
		wantKind   Kind
		checkExtra func(t *testing.T, e Element)
	}{
		{"text", NewText("a", canvas, 0), 200, 40, 0, 400, KindText, func(t *testing.T, e Element) {
			v := e.(*Text)
			if v.FontFamily != "Arial" || v.FontSize != 18 || v.Align != AlignCenter || v.Fill != "#000000" {
				t.Errorf("text = %+v", v)
			}
		}},
		{"image", NewImage("b", canvas, 1, "logo.png"), 200, 200, 1, 400, KindImage, nil},
		{"rectangle", NewShape("c", canvas, 2, ShapeRectangle), 100, 100, 2, 450, KindShape, func(t *testing.T, e Element) {
			v := e.(*Shape)
			if v.Fill != "#e9e9e9" || v.Stroke != "#000000" || v.StrokeWidth != 1 {
				t.Errorf("shape = %+v", v)
			}
		}},
		{"line", NewShape("d", canvas, 3, ShapeLine), 100, 2, 3, 450, KindShape, func(t *testing.T, e Element) {
			if e.(*Shape).Fill != "transparent" {
				t.Error("lines have no fill")
			}
		}},
		{"placeholder", NewPlaceholder("e", canvas, 4, ""), 150, 40, 4, 425, KindPlaceholder, func(t *testing.T, e Element) {
			v := e.(*Placeholder)
			if v.Field != "name" || v.DisplayText != "{name}" || v.Fill != "#3B82F6" {
				t.Errorf("placeholder = %+v", v)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.e.Common()
			if b.Width != tt.wantW || b.Height != tt.wantH || b.ZIndex != tt.wantZ || b.X != tt.wantX {
				t.Errorf("base = %+v", b)
			}
			if b.Selected || b.Opacity != 1 || tt.e.Kind() != tt.wantKind {
				t.Errorf("selected=%v opacity=%v kind=%s", b.Selected, b.Opacity, tt.e.Kind())
			}
			if tt.checkExtra != nil {
				tt.checkExtra(t, tt.e)
			}
		})
	}
}

func TestCodec(t *testing.T) {
	list := List{
		NewText("t", SizeA4, 0),
		NewImage("i", SizeA4, 1, "data:image/png;base64,AAAA"),
		NewShape("s", SizeA4, 2, ShapeCircle),
		NewPlaceholder("p", SizeA4, 3, "course"),
	}
	raw, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type":"text"`, `"type":"image"`, `"type":"shape"`, `"type":"placeholder"`, `"zIndex":3`, `"shapeType":"circle"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("encoded list missing %s", want)
		}
	}
	var back List
	if err = json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 4 || back[3].(*Placeholder).Field != "course" || back[2].(*Shape).ShapeType != ShapeCircle {
		t.Errorf("decoded = %#v", back)
	}
}

func TestUnmarshalElement(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantKind    Kind
		wantOpacity float64
		wantErr     bool
	}{
		{"opacity defaults to 1", `{"type":"shape","id":"a"}`, KindShape, 1, false},
		{"explicit opacity", `{"type":"text","id":"a","opacity":0.5}`, KindText, 0.5, false},
		{"unknown type", `{"type":"video"}`, "", 0, true},
		{"missing type", `{"id":"a"}`, "", 0, true},
		{"bad json", `{`, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := UnmarshalElement([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if e.Kind() != tt.wantKind || e.Common().Opacity != tt.wantOpacity {
				t.Errorf("got %s opacity %v", e.Kind(), e.Common().Opacity)
			}
		})
	}
}

func TestSortedAndDense(t *testing.T) {
	a, b, c := NewShape("a", SizeA4, 2, ShapeRectangle), NewShape("b", SizeA4, 0, ShapeRectangle), NewShape("c", SizeA4, 1, ShapeRectangle)
	list := List{a, b, c}
	got := Sorted(list)
	if got[0].Common().ID != "b" || got[1].Common().ID != "c" || got[2].Common().ID != "a" {
		t.Errorf("sorted = %s %s %s", got[0].Common().ID, got[1].Common().ID, got[2].Common().ID)
	}
	if list[0].Common().ID != "a" {
		t.Error("Sorted must not reorder its input")
	}
	if !ZOrderDense(list) {
		t.Error("0,1,2 is dense")
	}
	c.ZIndex = 2
	if ZOrderDense(list) {
		t.Error("duplicate z-order is not dense")
	}
}

func TestFontFlags(t *testing.T) {
	tests := []struct {
		in           string
		bold, italic bool
	}{
		{"normal", false, false},
		{"bold", true, false},
		{"italic bold", true, true},
		{"Italic", false, true},
		{"700", true, false},
		{"", false, false},
	}
	for _, tt := range tests {
		b, i := FontFlags(tt.in)
		if b != tt.bold || i != tt.italic {
			t.Errorf("FontFlags(%q) = %v %v", tt.in, b, i)
		}
	}
}

func TestFindPreset(t *testing.T) {
	if p, ok := FindPreset("A4"); !ok || p.Width != 794 || p.Height != 1123 {
		t.Errorf("A4 = %+v %v", p, ok)
	}
	if _, ok := FindPreset("Tabloid"); ok {
		t.Error("unexpected preset")
	}
	if Presets[0] != SizeA4 {
		t.Error("A4 is the default canvas")
	}
}
