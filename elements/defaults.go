package elements

// Defaults the editor applies when a new element is dropped on the canvas.
const (
	DefaultFontFamily       = "Arial"
	DefaultFontSize         = 18
	DefaultText             = "Double click to edit text"
	DefaultPlaceholderField = "name"
	DefaultPlaceholderFill  = "#3B82F6"
	DefaultShapeFill        = "#e9e9e9"
	DefaultStroke           = "#000000"
)

// CommonFields - placeholder fields offered out of the box, also the default column mapping order
var CommonFields = []string{"name", "date", "course", "instructor", "achievement"}

// Every constructor takes the caller-supplied unique id and the current element count,
// so the new element lands on top of the z-order and starts unselected.

func NewText(id string, canvas Size, count int) *Text {
	return &Text{
		Base:       centered(id, canvas, 200, 40, count),
		Text:       DefaultText,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Fill:       "#000000",
		Align:      AlignCenter,
	}
}

func NewImage(id string, canvas Size, count int, src string) *Image {
	return &Image{
		Base: centered(id, canvas, 200, 200, count),
		Src:  src,
	}
}

func NewShape(id string, canvas Size, count int, kind ShapeKind) *Shape {
	h := 100.0
	fill := DefaultShapeFill
	if kind == ShapeLine {
		h = 2
		fill = "transparent"
	}
	b := centered(id, canvas, 100, 100, count)
	b.Height = h
	return &Shape{
		Base:        b,
		ShapeType:   kind,
		Fill:        fill,
		Stroke:      DefaultStroke,
		StrokeWidth: 1,
	}
}

func NewPlaceholder(id string, canvas Size, count int, field string) *Placeholder {
	if field == "" {
		field = DefaultPlaceholderField
	}
	return &Placeholder{
		Base:        centered(id, canvas, 150, 40, count),
		Field:       field,
		FontSize:    DefaultFontSize,
		FontFamily:  DefaultFontFamily,
		Fill:        DefaultPlaceholderFill,
		DisplayText: "{" + field + "}",
		Align:       AlignCenter,
	}
}

func centered(id string, canvas Size, w, h float64, count int) Base {
	return Base{
		ID:      id,
		X:       canvas.Width/2 - w/2,
		Y:       canvas.Height/2 - h/2,
		Width:   w,
		Height:  h,
		ZIndex:  count,
		Opacity: 1,
	}
}
