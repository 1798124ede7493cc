package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/model"
)

// entry is the method set a record type needs to live in a Collection.
type entry[E any] interface {
	*E
	SetKey(key string)
	Stamp(now string)
	Touch(now string)
	ApplyDefaults()
	Validate() error
}

// KeyFunc picks the key for a new entry. taken reports keys in use.
type KeyFunc func(now time.Time, taken func(string) bool) string

// Collection is an ordered keyed set of entries persisted through a
// Backend after every mutation. It is safe for use by one process;
// writers in separate processes overwrite each other.
type Collection[E any, P entry[E]] struct {
	mu      sync.Mutex
	name    string
	backend Backend
	newKey  KeyFunc
	opts    Options
	keys    []string
	entries map[string]E
}

// NewCollection creates an empty collection. Call Load to read the backend.
func NewCollection[E any, P entry[E]](name string, backend Backend, newKey KeyFunc, opts Options) *Collection[E, P] {
	return &Collection[E, P]{
		name:    name,
		backend: backend,
		newKey:  newKey,
		opts:    opts.withDefaults(),
		entries: make(map[string]E),
	}
}

// Load replaces the in-memory set with the backend contents. Records
// that fail to decode or validate after defaulting are skipped and
// reported. A backend failure leaves the collection empty and is
// returned; the collection stays usable either way.
func (c *Collection[E, P]) Load(ctx context.Context) ([]Skipped, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys = nil
	c.entries = make(map[string]E)

	recs, err := c.backend.Read(ctx)
	if err != nil {
		c.opts.Logger.Warn("load failed, starting empty",
			zap.String("collection", c.name),
			zap.String("location", c.backend.Location()),
			zap.Error(err))
		return nil, errors.Wrapf(err, "load %s", c.name)
	}

	var skipped []Skipped
	for _, r := range recs {
		e, err := c.decode(r)
		if err != nil {
			skipped = append(skipped, Skipped{Key: r.Key, Reason: err.Error()})
			c.opts.Logger.Warn("skipping malformed entry",
				zap.String("collection", c.name),
				zap.String("key", r.Key),
				zap.Error(err))
			continue
		}
		c.put(r.Key, e)
	}

	c.opts.Logger.Debug("collection loaded",
		zap.String("collection", c.name),
		zap.Int("entries", len(c.keys)),
		zap.Int("skipped", len(skipped)))
	return skipped, nil
}

func (c *Collection[E, P]) decode(r Record) (E, error) {
	var e E
	if r.Key == "" {
		return e, fmt.Errorf("empty key")
	}
	if trimmed := bytes.TrimSpace(r.Data); len(trimmed) == 0 || trimmed[0] != '{' {
		return e, fmt.Errorf("entry is not an object")
	}
	if err := json.Unmarshal(r.Data, &e); err != nil {
		return e, err
	}
	p := P(&e)
	p.SetKey(r.Key)
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

// Save writes the whole collection to the backend.
func (c *Collection[E, P]) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx)
}

func (c *Collection[E, P]) save(ctx context.Context) error {
	recs := make([]Record, 0, len(c.keys))
	for _, k := range c.keys {
		data, err := json.Marshal(c.entries[k])
		if err != nil {
			return errors.Wrapf(err, "encode %s/%s", c.name, k)
		}
		recs = append(recs, Record{Key: k, Data: data})
	}
	if err := c.backend.Write(ctx, recs); err != nil {
		c.opts.Logger.Error("save failed",
			zap.String("collection", c.name),
			zap.String("location", c.backend.Location()),
			zap.Error(err))
		return errors.Wrapf(err, "save %s", c.name)
	}
	return nil
}

// Add validates e, assigns it a fresh key and timestamps, and persists.
// On a save failure the entry is not kept.
func (c *Collection[E, P]) Add(ctx context.Context, e E) (E, error) {
	if err := P(&e).Validate(); err != nil {
		return e, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.now()
	key := c.newKey(now, func(k string) bool {
		_, ok := c.entries[k]
		return ok
	})
	p := P(&e)
	p.SetKey(key)
	p.Stamp(now.Format(model.TimestampLayout))

	c.put(key, e)
	if err := c.save(ctx); err != nil {
		c.remove(key)
		return e, err
	}
	return e, nil
}

// Update applies mutate to a copy of the entry under key, validates the
// result, bumps its update time and persists. An absent key returns
// ErrNotFound and never creates an entry.
func (c *Collection[E, P]) Update(ctx context.Context, key string, mutate func(*E) error) (E, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.entries[key]
	if !ok {
		var zero E
		return zero, fmt.Errorf("%s %q: %w", c.name, key, ErrNotFound)
	}

	e := old
	if err := mutate(&e); err != nil {
		return old, err
	}
	p := P(&e)
	p.SetKey(key)
	if err := p.Validate(); err != nil {
		return old, err
	}
	p.Touch(c.opts.now().Format(model.TimestampLayout))

	c.entries[key] = e
	if err := c.save(ctx); err != nil {
		c.entries[key] = old
		return old, err
	}
	return e, nil
}

// Apply runs fn on each existing entry in keys without bumping update
// times, then persists once. Absent keys are ignored.
func (c *Collection[E, P]) Apply(ctx context.Context, keys []string, fn func(*E)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for _, k := range keys {
		e, ok := c.entries[k]
		if !ok {
			continue
		}
		fn(&e)
		c.entries[k] = e
		changed = true
	}
	if !changed {
		return nil
	}
	return c.save(ctx)
}

// Delete removes key and persists. It reports whether the key existed;
// deleting an absent key is not an error.
func (c *Collection[E, P]) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	idx := c.remove(key)
	if err := c.save(ctx); err != nil {
		c.insertAt(idx, key, old)
		return true, err
	}
	return true, nil
}

// Get returns the entry under key.
func (c *Collection[E, P]) Get(key string) (E, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// List returns every entry in insertion order.
func (c *Collection[E, P]) List() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]E, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.entries[k])
	}
	return out
}

// Len returns the number of entries.
func (c *Collection[E, P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// Location names the backing store.
func (c *Collection[E, P]) Location() string {
	return c.backend.Location()
}

// Close releases the backend.
func (c *Collection[E, P]) Close() error {
	return c.backend.Close()
}

// put stores e under key, keeping the position of an existing key.
func (c *Collection[E, P]) put(key string, e E) {
	if _, ok := c.entries[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.entries[key] = e
}

func (c *Collection[E, P]) remove(key string) int {
	delete(c.entries, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return i
		}
	}
	return len(c.keys)
}

func (c *Collection[E, P]) insertAt(idx int, key string, e E) {
	if idx > len(c.keys) {
		idx = len(c.keys)
	}
	c.keys = append(c.keys, "")
	copy(c.keys[idx+1:], c.keys[idx:])
	c.keys[idx] = key
	c.entries[key] = e
}
