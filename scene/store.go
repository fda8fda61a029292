// Package scene owns the element collection of the active template, the selection,
// the one-slot clipboard and the canvas geometry.
//
// A Store is not safe for concurrent use. It is driven by one control flow
// (the editor session or the batch pipeline), never by both at once.
package scene

import (
	"github.com/google/uuid"

	"github.com/zeptools/certmerge/elements"
)

// PasteOffset is added to both axes of a pasted or duplicated element
const PasteOffset = 20

type Store struct {
	elements   elements.List
	selected   elements.Element // current selection, nil = none
	clipboard  elements.Element
	canvasSize elements.Size
	background elements.Background
	scale      float64
	showGrid   bool
	newID      func() string
}

type Option func(*Store)

// WithIDFunc replaces the uuid v4 generator used for pasted and duplicated elements
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func WithCanvasSize(size elements.Size) Option {
	return func(s *Store) { s.canvasSize = size }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		canvasSize: elements.Presets[0],
		background: elements.DefaultBackground(),
		scale:      1,
		showGrid:   true,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddElement appends a copy of e. Existing z-orders are left alone.
func (s *Store) AddElement(e elements.Element) {
	if e == nil {
		return
	}
	s.elements = append(s.elements, elements.Clone(e))
}

// NextZIndex is the z-order a newly created element must carry: the current element count.
func (s *Store) NextZIndex() int { return len(s.elements) }

// UpdateElement replaces the element with the same id in place.
// Unknown ids are ignored.
func (s *Store) UpdateElement(e elements.Element) {
	if e == nil {
		return
	}
	id := e.Common().ID
	i := elements.IndexOf(s.elements, id)
	if i < 0 {
		s.noop("UpdateElement", id)
		return
	}
	c := elements.Clone(e)
	s.elements[i] = c
	if s.selected != nil && s.selected.Common().ID == id {
		s.selected = c
	}
}

// SelectElement flags exactly the element with the given id as selected.
// A non-existent id leaves every element unselected and no current selection.
func (s *Store) SelectElement(id string) {
	s.selected = nil
	for _, e := range s.elements {
		b := e.Common()
		b.Selected = b.ID == id
		if b.Selected {
			s.selected = e
		}
	}
	if s.selected == nil {
		s.noop("SelectElement", id)
	}
}

// ClearSelection is SelectElement(null) of the editor. Selection flags are reset too,
// so a later render shows no selection decoration.
func (s *Store) ClearSelection() {
	s.selected = nil
	for _, e := range s.elements {
		e.Common().Selected = false
	}
}

// DeleteElement removes the element and clears the selection if it pointed at it.
// The remaining elements are compacted back to z-orders 0..n-1, keeping their paint order.
func (s *Store) DeleteElement(id string) {
	i := elements.IndexOf(s.elements, id)
	if i < 0 {
		s.noop("DeleteElement", id)
		return
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	if s.selected != nil && s.selected.Common().ID == id {
		s.selected = nil
	}
	s.compact()
}

// LoadTemplate replaces the whole scene. The background is replaced only when given.
func (s *Store) LoadTemplate(list elements.List, size elements.Size, background *elements.Background) {
	s.elements = elements.CloneList(list)
	s.canvasSize = size
	if background != nil {
		s.background = background.Clone()
	}
	s.ClearSelection()
}

// ClearCanvas empties the scene and resets the background to plain white.
func (s *Store) ClearCanvas() {
	s.elements = nil
	s.selected = nil
	s.background = elements.DefaultBackground()
}

// Snapshot captures the current scene as a named template (id and thumbnail left empty).
func (s *Store) Snapshot(name string) elements.Template {
	bg := s.background.Clone()
	list := elements.CloneList(s.elements)
	for _, e := range list {
		e.Common().Selected = false
	}
	if list == nil {
		list = elements.List{}
	}
	return elements.Template{
		Name:       name,
		Elements:   list,
		CanvasSize: s.canvasSize,
		Background: &bg,
	}
}

//---- Getters ----

// Elements returns a copy of the collection in insertion order.
func (s *Store) Elements() elements.List { return elements.CloneList(s.elements) }

// SortedElements returns a copy of the collection in paint order.
func (s *Store) SortedElements() elements.List {
	return elements.Sorted(elements.CloneList(s.elements))
}

func (s *Store) Element(id string) (elements.Element, bool) {
	i := elements.IndexOf(s.elements, id)
	if i < 0 {
		return nil, false
	}
	return elements.Clone(s.elements[i]), true
}

// Selected returns a copy of the current selection, if any
func (s *Store) Selected() (elements.Element, bool) {
	if s.selected == nil {
		return nil, false
	}
	return elements.Clone(s.selected), true
}

func (s *Store) Len() int                        { return len(s.elements) }
func (s *Store) CanvasSize() elements.Size       { return s.canvasSize }
func (s *Store) Background() elements.Background { return s.background.Clone() }
func (s *Store) Scale() float64                  { return s.scale }
func (s *Store) ShowGrid() bool                  { return s.showGrid }

//---- Canvas Settings ----

func (s *Store) SetCanvasSize(size elements.Size) { s.canvasSize = size }

func (s *Store) SetBackground(b elements.Background) { s.background = b.Clone() }

func (s *Store) ToggleGrid() { s.showGrid = !s.showGrid }

// SetScale sets the editor zoom. Non-positive values are ignored.
func (s *Store) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.scale = scale
}
