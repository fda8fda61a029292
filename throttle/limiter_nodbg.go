//go:build !debug

package throttle

func (l *Limiter[K]) dropped(groupID string, key any) {}
