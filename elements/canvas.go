package elements

import "strings"

// Size - logical canvas size in CSS pixels, with a preset label
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Name   string  `json:"name"`
}

func (s Size) Landscape() bool { return s.Width > s.Height }

var (
	SizeA4              = Size{Width: 794, Height: 1123, Name: "A4"}
	SizeLetter          = Size{Width: 816, Height: 1056, Name: "Letter"}
	SizeA4Landscape     = Size{Width: 1123, Height: 794, Name: "A4 Landscape"}
	SizeLetterLandscape = Size{Width: 1056, Height: 816, Name: "Letter Landscape"}
	SizeCertificate     = Size{Width: 1000, Height: 600, Name: "Custom Certificate"}
)

// Presets in the order the editor offers them. The first one is the default canvas.
var Presets = []Size{SizeA4, SizeLetter, SizeA4Landscape, SizeLetterLandscape, SizeCertificate}

// FindPreset looks a preset up by name, case-insensitively
func FindPreset(name string) (Size, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Size{}, false
}

type BackgroundType string

const (
	BackgroundColor    BackgroundType = "color"
	BackgroundGradient BackgroundType = "gradient"
)

type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

type Gradient struct {
	Type   GradientType `json:"type"`
	Colors []string     `json:"colors"` // evenly spaced stops
	Angle  float64      `json:"angle,omitempty"`
}

type Background struct {
	Type     BackgroundType `json:"type"`
	Color    string         `json:"color,omitempty"`
	Gradient *Gradient      `json:"gradient,omitempty"`
}

const DefaultBackgroundColor = "#ffffff"

func DefaultBackground() Background {
	return Background{Type: BackgroundColor, Color: DefaultBackgroundColor}
}

func (b Background) Clone() Background {
	if b.Gradient != nil {
		g := *b.Gradient
		g.Colors = append([]string(nil), b.Gradient.Colors...)
		b.Gradient = &g
	}
	return b
}

// Template - named snapshot of a scene
type Template struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Elements   List        `json:"elements"`
	CanvasSize Size        `json:"canvasSize"`
	Background *Background `json:"background,omitempty"`
	Thumbnail  string      `json:"thumbnail,omitempty"`
}
