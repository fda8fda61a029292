// Package memory is a process-local kvdb backend. Nothing survives the process.
package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zeptools/certmerge/db/kvdb"
)

type entry struct {
	val     string
	expires time.Time // zero = never
}

type Client struct {
	Conf *kvdb.Conf
	Now  func() time.Time

	mu   sync.RWMutex
	data map[string]entry
}

// Ensure memory.Client implements kvdb.Client interface
var _ kvdb.Client = (*Client)(nil)

func Register() {
	kvdb.RegisterFactory("memory", func(conf *kvdb.Conf) (kvdb.Client, error) {
		return &Client{Conf: conf}, nil
	})
}

func (c *Client) Init() error {
	c.data = make(map[string]entry)
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Conf == nil {
		c.Conf = &kvdb.Conf{Type: "memory"}
	}
	log.Println("[INFO] memory kv initialized")
	return nil
}

func (c *Client) Close() error { return nil }

func (c *Client) GetHandle() any { return c.data }

func (c *Client) GetConf() *kvdb.Conf { return c.Conf }

// lookup must be called with mu held
func (c *Client) lookup(key string) (entry, bool) {
	e, ok := c.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !c.Now().Before(e.expires) {
		return entry{}, false
	}
	return e, true
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.lookup(k); ok {
			n++
		}
		delete(c.data, k)
	}
	return n, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	e := entry{val: kvdb.ValueString(value)}
	if expiration > 0 {
		e.expires = c.Now().Add(expiration)
	}
	c.mu.Lock()
	c.data[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.lookup(key)
	return e.val, ok, nil
}
