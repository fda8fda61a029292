package elements

import "strings"

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeLine      ShapeKind = "line"
)

// Text - literal text. With HasPlaceholder set, `{field}` tokens in Text are substituted at render time.
type Text struct {
	Base
	Text           string  `json:"text"`
	FontSize       float64 `json:"fontSize"`
	FontFamily     string  `json:"fontFamily"`
	Fill           string  `json:"fill"`
	Align          Align   `json:"align"`
	FontStyle      string  `json:"fontStyle"`
	HasPlaceholder bool    `json:"hasPlaceholder"`
}

type Image struct {
	Base
	Src string `json:"src"` // URL, file path or data: URL
}

type Shape struct {
	Base
	ShapeType   ShapeKind `json:"shapeType"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
}

// Placeholder - its whole content is the resolved value of Field.
type Placeholder struct {
	Base
	Field          string  `json:"field"`
	FontSize       float64 `json:"fontSize"`
	FontFamily     string  `json:"fontFamily"`
	Fill           string  `json:"fill"`
	DisplayText    string  `json:"displayText"`
	Align          Align   `json:"align"`
	FontStyle      string  `json:"fontStyle"`
	TextDecoration string  `json:"textDecoration"`
	LetterSpacing  float64 `json:"letterSpacing"`
}

func (*Text) Kind() Kind        { return KindText }
func (*Image) Kind() Kind       { return KindImage }
func (*Shape) Kind() Kind       { return KindShape }
func (*Placeholder) Kind() Kind { return KindPlaceholder }

func (*Text) sealed()        {}
func (*Image) sealed()       {}
func (*Shape) sealed()       {}
func (*Placeholder) sealed() {}

// FontFlags splits a font style string such as "italic bold" into flags.
func FontFlags(fontStyle string) (bold bool, italic bool) {
	for _, f := range strings.Fields(strings.ToLower(fontStyle)) {
		switch f {
		case "bold", "700", "800", "900":
			bold = true
		case "italic", "oblique":
			italic = true
		}
	}
	return bold, italic
}

// Underlined reports whether a placeholder's text decoration asks for an underline.
func (p *Placeholder) Underlined() bool {
	return strings.Contains(strings.ToLower(p.TextDecoration), "underline")
}
