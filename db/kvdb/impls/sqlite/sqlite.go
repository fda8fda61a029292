// Package sqlite is the embedded kvdb backend: a single key/value table in a local
// SQLite file, so templates persist without running a server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeptools/certmerge/db/kvdb"

	_ "modernc.org/sqlite" // driver name "sqlite"
)

const DefaultPath = "certmerge.sqlite"

type Client struct {
	Conf *kvdb.Conf
	Now  func() time.Time

	db *sql.DB
}

// Ensure sqlite.Client implements kvdb.Client interface
var _ kvdb.Client = (*Client)(nil)

func Register() {
	kvdb.RegisterFactory("sqlite", func(conf *kvdb.Conf) (kvdb.Client, error) {
		return &Client{Conf: conf}, nil
	})
}

func (c *Client) Init() error {
	if c.Now == nil {
		c.Now = time.Now
	}
	path := c.Conf.Path
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("sqlite kv dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err = db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite %s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}
	if _, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL,
		expires_at_unixms INTEGER
	);`); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	c.db = db
	log.Printf("[INFO] sqlite kv initialized at %s", path)
	return nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Client) GetHandle() any { // *sql.DB
	return c.db
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

func (c *Client) nowMS() int64 { return c.Now().UnixMilli() }

//--- Key Ops ----

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := c.Get(ctx, key)
	return found, err
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, c.nowMS())
	for _, k := range keys {
		args = append(args, k)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	// expired rows are removed but not counted
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM kv WHERE (expires_at_unixms IS NULL OR expires_at_unixms > ?) AND k IN (`+marks+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err = c.db.ExecContext(ctx, `DELETE FROM kv WHERE k IN (`+marks+`)`, args[1:]...); err != nil {
		return n, err
	}
	return n, nil
}

//---- Single-value Ops ----

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := c.db.QueryRowContext(ctx,
		`SELECT v FROM kv WHERE k = ? AND (expires_at_unixms IS NULL OR expires_at_unixms > ?)`,
		key, c.nowMS(),
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	var expires sql.NullInt64
	if expiration > 0 {
		expires = sql.NullInt64{Int64: c.Now().Add(expiration).UnixMilli(), Valid: true}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO kv (k, v, expires_at_unixms) VALUES (?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at_unixms = excluded.expires_at_unixms`,
		key, kvdb.ValueString(value), expires,
	)
	return err
}
