package store

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Imported int       `json:"imported"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

// Export returns every entry encoded, in insertion order.
func (c *Collection[E, P]) Export() ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs := make([]Record, 0, len(c.keys))
	for _, k := range c.keys {
		data, err := json.Marshal(c.entries[k])
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s/%s", c.name, k)
		}
		recs = append(recs, Record{Key: k, Data: data})
	}
	return recs, nil
}

// Import appends recs whose keys are not yet present, applying the same
// defaulting and validation as Load, then persists once. Existing keys
// and malformed records are skipped. On a save failure nothing is kept.
func (c *Collection[E, P]) Import(ctx context.Context, recs []Record) (ImportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res ImportResult
	var added []string
	for _, r := range recs {
		if _, ok := c.entries[r.Key]; ok {
			res.Skipped = append(res.Skipped, Skipped{Key: r.Key, Reason: "key exists"})
			continue
		}
		e, err := c.decode(r)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Key: r.Key, Reason: err.Error()})
			continue
		}
		c.put(r.Key, e)
		added = append(added, r.Key)
	}
	if len(added) == 0 {
		return res, nil
	}

	if err := c.save(ctx); err != nil {
		for _, k := range added {
			c.remove(k)
		}
		return ImportResult{}, err
	}
	res.Imported = len(added)
	c.opts.Logger.Info("entries imported",
		zap.String("collection", c.name),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

// Export returns every memory in its stored form.
func (s *MemoryStore) Export() ([]Record, error) { return s.entries.Export() }

// Import merges memories from another store.
func (s *MemoryStore) Import(ctx context.Context, recs []Record) (ImportResult, error) {
	return s.entries.Import(ctx, recs)
}

// Export returns every schedule in its stored form.
func (s *ScheduleStore) Export() ([]Record, error) { return s.entries.Export() }

// Import merges schedules from another store.
func (s *ScheduleStore) Import(ctx context.Context, recs []Record) (ImportResult, error) {
	return s.entries.Import(ctx, recs)
}
