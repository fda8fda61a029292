// Package templates persists named scene snapshots in the key-value store.
// All templates live as one JSON array under a single key, newest last.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/zeptools/certmerge/db/kvdb"
	"github.com/zeptools/certmerge/elements"
)

const StorageKey = "certificate-templates"

var (
	ErrEmptyName = errors.New("template name is empty")
	ErrNotFound  = errors.New("template not found")
	ErrCorrupt   = errors.New("stored templates are corrupt")
	ErrInvalid   = errors.New("invalid template file")
)

type Repository struct {
	kv    kvdb.Client
	key   string
	newID func() string
	mu    sync.Mutex // serializes read-modify-write of the array
}

type Option func(*Repository)

// WithKey overrides StorageKey
func WithKey(key string) Option {
	return func(r *Repository) { r.key = key }
}

func WithIDFunc(f func() string) Option {
	return func(r *Repository) { r.newID = f }
}

func NewRepository(kv kvdb.Client, opts ...Option) *Repository {
	r := &Repository{
		kv:    kv,
		key:   StorageKey,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every stored template in save order. An absent key is an empty list.
func (r *Repository) List(ctx context.Context) ([]elements.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Repository) load(ctx context.Context) ([]elements.Template, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []elements.Template{}, nil
	}
	var list []elements.Template
	if err = json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if list == nil {
		list = []elements.Template{}
	}
	return list, nil
}

func (r *Repository) store(ctx context.Context, list []elements.Template) error {
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode templates: %w", err)
	}
	if err = r.kv.Set(ctx, r.key, b, 0); err != nil {
		return fmt.Errorf("write templates: %w", err)
	}
	return nil
}

// Save appends snap under name with a fresh id and returns what was stored.
// Saving under an existing name adds another entry; names are not unique.
func (r *Repository) Save(ctx context.Context, name string, snap elements.Template) (elements.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return elements.Template{}, ErrEmptyName
	}
	snap.ID = r.newID()
	snap.Name = name
	snap.Elements = elements.CloneList(snap.Elements)
	if snap.Elements == nil {
		snap.Elements = elements.List{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return elements.Template{}, err
	}
	list = append(list, snap)
	if err = r.store(ctx, list); err != nil {
		return elements.Template{}, err
	}
	log.Printf("[INFO][TEMPLATES] saved %q as %s (%d elements)", name, snap.ID, len(snap.Elements))
	return snap, nil
}

func (r *Repository) Get(ctx context.Context, id string) (elements.Template, error) {
	list, err := r.List(ctx)
	if err != nil {
		return elements.Template{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return elements.Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindByName returns the most recently saved template with the given name.
func (r *Repository) FindByName(ctx context.Context, name string) (elements.Template, error) {
	list, err := r.List(ctx)
	if err != nil {
		return elements.Template{}, err
	}
	name = strings.TrimSpace(name)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Name == name {
			return list[i], nil
		}
	}
	return elements.Template{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve looks a template up by id first, then by name.
func (r *Repository) Resolve(ctx context.Context, ref string) (elements.Template, error) {
	t, err := r.Get(ctx, ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return t, err
	}
	return r.FindByName(ctx, ref)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, t := range list {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err = r.store(ctx, kept); err != nil {
		return err
	}
	log.Printf("[INFO][TEMPLATES] deleted %s", id)
	return nil
}

// Import stores a template file exported from the editor. It always gets a fresh id.
func (r *Repository) Import(ctx context.Context, data []byte) (elements.Template, error) {
	var t elements.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return elements.Template{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if t.CanvasSize.Width <= 0 || t.CanvasSize.Height <= 0 {
		t.CanvasSize = elements.SizeA4
	}
	return r.Save(ctx, t.Name, t)
}
