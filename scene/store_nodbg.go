//go:build !debug

package scene

func (s *Store) noop(op string, id string) {}
