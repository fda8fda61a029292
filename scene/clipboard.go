package scene

import "github.com/zeptools/certmerge/elements"

// CopySelectedElement puts a copy of the current selection into the one-slot clipboard,
// replacing what was there. Without a selection the clipboard is kept.
func (s *Store) CopySelectedElement() {
	if s.selected == nil {
		return
	}
	s.clipboard = elements.Clone(s.selected)
}

// PasteElement inserts a clone of the clipboard element on top of the scene.
// Returns the new id, or "" when the clipboard is empty.
func (s *Store) PasteElement() string {
	if s.clipboard == nil {
		return ""
	}
	return s.insertCopy(s.clipboard)
}

// DuplicateElement copies and pastes the given element without touching the clipboard.
// Returns the new id, or "" when the id is unknown.
func (s *Store) DuplicateElement(id string) string {
	i := elements.IndexOf(s.elements, id)
	if i < 0 {
		s.noop("DuplicateElement", id)
		return ""
	}
	return s.insertCopy(s.elements[i])
}

func (s *Store) HasClipboard() bool { return s.clipboard != nil }

func (s *Store) insertCopy(src elements.Element) string {
	c := elements.Clone(src)
	b := c.Common()
	b.ID = s.newID()
	b.X += PasteOffset
	b.Y += PasteOffset
	b.Selected = false
	b.ZIndex = len(s.elements)
	s.elements = append(s.elements, c)
	return b.ID
}
