// Package throttle rate-limits callers with token buckets, one bucket per key per group.
package throttle

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/zeptools/certmerge/jsontime"
)

type Conf struct {
	Burst     int           `json:"burst"`     // maximum number of tokens in the bucket
	Increment int           `json:"increment"` // how many tokens to add each period
	Period    time.Duration `json:"period"`    // how often to add Increment. JSON: duration string, "2s"
}

func (c Conf) MarshalJSON() ([]byte, error) {
	type plain Conf
	return json.Marshal(struct {
		plain
		Period jsontime.Duration `json:"period"`
	}{plain(c), jsontime.Duration(c.Period)})
}

// UnmarshalJSON overlays data on c: absent keys keep their current values
func (c *Conf) UnmarshalJSON(data []byte) error {
	type plain Conf
	aux := struct {
		*plain
		Period jsontime.Duration `json:"period"`
	}{plain: (*plain)(c), Period: jsontime.Duration(c.Period)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Period = time.Duration(aux.Period)
	return nil
}

// Enabled reports whether c describes a usable bucket
func (c Conf) Enabled() bool {
	return c.Burst > 0 && c.Increment > 0 && c.Period > 0
}

type bucket struct {
	mu        sync.Mutex // protects access to bucket state
	tokens    int
	lastCheck time.Time
}

// refill tokens. caller holds mu
func (b *bucket) refill(now time.Time, conf Conf) {
	elapsed := now.Sub(b.lastCheck)
	if elapsed < conf.Period {
		return
	}
	times := int(elapsed / conf.Period)
	b.tokens += times * conf.Increment
	if b.tokens > conf.Burst {
		b.tokens = conf.Burst
	}
	b.lastCheck = b.lastCheck.Add(time.Duration(times) * conf.Period)
}

func (b *bucket) allow(now time.Time, conf Conf) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now, conf)
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) last() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCheck
}

type group[K comparable] struct {
	conf    Conf
	buckets sync.Map // K -> *bucket
}
