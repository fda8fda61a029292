package kvdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

type Client interface {
	Init() error
	Close() error
	GetHandle() any // generic handle
	GetConf() *Conf

	//---- Key Ops ----

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)

	//---- Single-value Ops ----

	// Set stores value under key. expiration 0 means no expiry.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error) // val, found, err
}

var ErrNotSupported = errors.New("kvdb: operation not supported")

// ClientFactory constructs a Client from Conf.
// It is registered with RegisterFactory and called by kvdb.New.
type ClientFactory func(conf *Conf) (Client, error)

var registry = map[string]ClientFactory{}

func RegisterFactory(kvType string, factory ClientFactory) {
	registry[kvType] = factory
}

func New(conf *Conf) (Client, error) {
	factory, ok := registry[conf.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported key-value database type: %q", conf.Type)
	}
	return factory(conf)
}

func CloseClient(name string, c Client) {
	if c == nil {
		log.Printf("[INFO] `%s` Nothing to Close", name)
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("[WARN] Failed to Close `%s`: %v", name, err)
	} else {
		log.Printf("[INFO] `%s` Closed", name)
	}
}

// ValueString renders a Set value the way the backends store it
func ValueString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
