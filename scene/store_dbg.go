//go:build debug

package scene

import "log"

func (s *Store) noop(op string, id string) {
	log.Printf("[DEBUG][SCENE] %s: no element %q among %d, ignored", op, id, len(s.elements))
}
