//go:build debug

package throttle

import "log"

func (l *Limiter[K]) dropped(groupID string, key any) {
	log.Printf("[DEBUG][Throttle] idle bucket %v removed from group %q", key, groupID)
}
