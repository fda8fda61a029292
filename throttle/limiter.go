package throttle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zeptools/certmerge/svc"
)

// Limiter holds bucket groups and, as a service, sweeps idle buckets every cleanupCycle.
// K is the caller key type, e.g. a client IP string.
type Limiter[K comparable] struct {
	Ctx              context.Context    // Service Context
	cancel           context.CancelFunc // Service Context CancelFunc
	state            int                // internal service state
	done             chan error         // Shutdown Error Channel
	cleanupCycle     time.Duration
	cleanupOlderThan time.Duration
	Now              func() time.Time

	mu     sync.RWMutex
	groups map[string]*group[K]
}

// Ensure Limiter implements svc.Service
var _ svc.Service = (*Limiter[string])(nil)

func NewLimiter[K comparable](parentCtx context.Context, cleanupCycle time.Duration, cleanupOlderThan time.Duration) *Limiter[K] {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Limiter[K]{
		Ctx:              svcCtx,
		cancel:           svcCancel,
		state:            svc.StateREADY,
		done:             make(chan error, 1),
		cleanupCycle:     cleanupCycle,
		cleanupOlderThan: cleanupOlderThan,
		Now:              time.Now,
		groups:           make(map[string]*group[K]),
	}
}

func (l *Limiter[K]) Name() string {
	return "ThrottleLimiter"
}

// SetGroup (re)defines a group. Existing buckets of the group are dropped.
func (l *Limiter[K]) SetGroup(id string, conf Conf) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.groups[id] = &group[K]{conf: conf}
}

// Allow takes one token from key's bucket in the group. Unknown groups always block.
func (l *Limiter[K]) Allow(groupID string, key K) bool {
	l.mu.RLock()
	g, ok := l.groups[groupID]
	l.mu.RUnlock()
	if !ok {
		return false
	}
	now := l.Now()
	if b, ok := g.buckets.Load(key); ok {
		return b.(*bucket).allow(now, g.conf)
	}
	// a fresh bucket starts full; this request takes the first token
	b, loaded := g.buckets.LoadOrStore(key, &bucket{tokens: g.conf.Burst - 1, lastCheck: now})
	if loaded {
		return b.(*bucket).allow(now, g.conf)
	}
	return g.conf.Burst > 0
}

// Start starts the cleanup loop
func (l *Limiter[K]) Start() error {
	if l.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if l.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	l.state = svc.StateRUNNING
	log.Printf("[INFO][Throttle] cleanup service started cycle=%v exp=%v", l.cleanupCycle, l.cleanupOlderThan)
	go l.run()
	return nil
}

func (l *Limiter[K]) Stop() {
	if l.state != svc.StateRUNNING {
		log.Println("[ERROR][Throttle] cannot stop. not running")
		return
	}
	l.cancel()
	l.state = svc.StateSTOPPED
	log.Println("[INFO][Throttle] service stopped")
}

func (l *Limiter[K]) Done() <-chan error {
	return l.done
}

func (l *Limiter[K]) run() {
	ticker := time.NewTicker(l.cleanupCycle)
	defer ticker.Stop()
	for {
		select {
		case <-l.Ctx.Done():
			log.Println("[INFO][Throttle] stopping cleaning service")
			l.done <- nil
			return
		case now := <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[PANIC] recovered in throttle cleaning service: %v", r)
					}
				}()
				l.Cleanup(now)
			}()
		}
	}
}

// Cleanup drops buckets untouched for longer than cleanupOlderThan and returns how many
func (l *Limiter[K]) Cleanup(now time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	removed := 0
	for gid, g := range l.groups {
		g.buckets.Range(func(key, value any) bool {
			if now.Sub(value.(*bucket).last()) > l.cleanupOlderThan {
				g.buckets.Delete(key)
				removed++
				l.dropped(gid, key)
			}
			return true // continue iteration
		})
	}
	return removed
}
