//go:build !debug

package binding

func (s *Store) noop(op string, index int) {}
