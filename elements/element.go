// Package elements holds the template scene model: the closed set of visual
// primitives (text, image, shape, placeholder) and the canvas geometry they sit on.
package elements

import "sort"

type Kind string

const (
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindShape       Kind = "shape"
	KindPlaceholder Kind = "placeholder"
)

type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
)

type Shadow struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type Border struct {
	Color  string      `json:"color"`
	Width  float64     `json:"width"`
	Style  BorderStyle `json:"style"`
	Radius float64     `json:"radius"`
}

// Base - attributes shared by every element kind
// Width/Height minimums are enforced by the interactive layer, not here.
type Base struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"` // degrees, clockwise
	Selected bool    `json:"selected"`
	ZIndex   int     `json:"zIndex"` // paint order, dense 0..n-1 after any reorder
	Opacity  float64 `json:"opacity"`
	Shadow   *Shadow `json:"shadow,omitempty"`
	Border   *Border `json:"border,omitempty"`
}

func (b *Base) Common() *Base { return b }

func (b *Base) clone() Base {
	c := *b
	if b.Shadow != nil {
		s := *b.Shadow
		c.Shadow = &s
	}
	if b.Border != nil {
		bd := *b.Border
		c.Border = &bd
	}
	return c
}

// Element is a closed tagged variant: only *Text, *Image, *Shape and *Placeholder implement it.
type Element interface {
	Common() *Base
	Kind() Kind
	sealed()
}

// List - ordered element collection. Order is insertion order; paint order is ZIndex.
type List []Element

// Clone returns a deep copy of e. The concrete type is preserved.
func Clone(e Element) Element {
	switch v := e.(type) {
	case *Text:
		c := *v
		c.Base = v.Base.clone()
		return &c
	case *Image:
		c := *v
		c.Base = v.Base.clone()
		return &c
	case *Shape:
		c := *v
		c.Base = v.Base.clone()
		return &c
	case *Placeholder:
		c := *v
		c.Base = v.Base.clone()
		return &c
	}
	return nil
}

// CloneList deep copies every element of l.
func CloneList(l List) List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, e := range l {
		out[i] = Clone(e)
	}
	return out
}

// Sorted returns the elements in paint order: ascending ZIndex, ties by insertion order.
func Sorted(l List) List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Common().ZIndex < out[j].Common().ZIndex
	})
	return out
}

// ZOrderDense reports whether the z-orders of l are exactly a permutation of 0..len(l)-1
func ZOrderDense(l List) bool {
	seen := make([]bool, len(l))
	for _, e := range l {
		z := e.Common().ZIndex
		if z < 0 || z >= len(l) || seen[z] {
			return false
		}
		seen[z] = true
	}
	return true
}

// IndexOf returns the position of the element with the given id, or -1.
func IndexOf(l List, id string) int {
	for i, e := range l {
		if e.Common().ID == id {
			return i
		}
	}
	return -1
}
