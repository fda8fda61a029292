package scene

import "github.com/zeptools/certmerge/elements"

// BringForward swaps the element with its upper neighbour and renumbers every z-order
// to its position. No-op on the top element.
func (s *Store) BringForward(id string) {
	s.reorder(id, +1)
}

// SendBackward swaps the element with its lower neighbour and renumbers every z-order
// to its position. No-op on the bottom element.
func (s *Store) SendBackward(id string) {
	s.reorder(id, -1)
}

func (s *Store) reorder(id string, delta int) {
	s.sortByZ()
	i := elements.IndexOf(s.elements, id)
	if i < 0 {
		s.noop("reorder", id)
		return
	}
	j := i + delta
	if j < 0 || j >= len(s.elements) {
		return
	}
	s.elements[i], s.elements[j] = s.elements[j], s.elements[i]
	s.renumber()
}

// sortByZ puts the collection in paint order, so positions and z-orders agree.
func (s *Store) sortByZ() {
	s.elements = elements.Sorted(s.elements)
}

func (s *Store) renumber() {
	for i, e := range s.elements {
		e.Common().ZIndex = i
	}
}

func (s *Store) compact() {
	s.sortByZ()
	s.renumber()
}
