//go:build debug

package binding

import "log"

func (s *Store) noop(op string, index int) {
	log.Printf("[DEBUG][BINDING] %s: index %d out of %d mappings, ignored", op, index, len(s.mappings))
}
