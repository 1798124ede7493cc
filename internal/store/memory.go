package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/welld/agent-memory/internal/model"
)

// MemoryKeyPrefix starts every memory key.
const MemoryKeyPrefix = "memory_"

var memoryKeyPattern = regexp.MustCompile(`^memory_\d{14}$`)

// AddMemoryParams holds the caller-supplied fields of a new memory.
type AddMemoryParams struct {
	Tags     []string
	Content  string
	Priority string
}

// UpdateMemoryParams holds the fields to change. Zero values keep the
// current value.
type UpdateMemoryParams struct {
	Content  string
	Tags     []string
	Priority string
}

// MemoryResult is a memory as returned to callers, with its key and the
// search score (0 outside of search).
type MemoryResult struct {
	Key            string      `json:"key"`
	Tags           []model.Tag `json:"tags"`
	Content        string      `json:"content"`
	Priority       string      `json:"priority"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
	ReferenceCount int         `json:"reference_count"`
	Score          float64     `json:"score"`
}

// MemoryStore keeps user memories with fuzzy search and usage stats.
type MemoryStore struct {
	entries *Collection[model.Memory, *model.Memory]
	opts    Options
}

// NewMemoryStore creates an empty store over backend. Call Load next.
func NewMemoryStore(backend Backend, opts Options) *MemoryStore {
	opts = opts.withDefaults()
	return &MemoryStore{
		entries: NewCollection[model.Memory]("memory", backend, memoryKey, opts),
		opts:    opts,
	}
}

// OpenMemoryStore creates a store and loads it. The returned error
// reports a degraded load; the store is usable regardless.
func OpenMemoryStore(ctx context.Context, backend Backend, opts Options) (*MemoryStore, []Skipped, error) {
	s := NewMemoryStore(backend, opts)
	skipped, err := s.Load(ctx)
	return s, skipped, err
}

// memoryKey derives the key from the creation second, moving forward
// one second at a time past keys already in use.
func memoryKey(now time.Time, taken func(string) bool) string {
	for t := now; ; t = t.Add(time.Second) {
		k := MemoryKeyPrefix + t.Format(model.TimestampLayout)
		if !taken(k) {
			return k
		}
	}
}

// Load reads the backend, replacing the in-memory set.
func (s *MemoryStore) Load(ctx context.Context) ([]Skipped, error) {
	return s.entries.Load(ctx)
}

// Add validates and stores a new memory. An empty tag list gets the
// fallback tag; any invalid tag rejects the whole call.
func (s *MemoryStore) Add(ctx context.Context, p AddMemoryParams) (MemoryResult, error) {
	tags, err := parseTags(p.Tags)
	if err != nil {
		return MemoryResult{}, err
	}
	if len(tags) == 0 {
		tags = []model.Tag{model.FallbackTag}
	}
	pri, err := parsePriority(p.Priority)
	if err != nil {
		return MemoryResult{}, err
	}

	m, err := s.entries.Add(ctx, model.Memory{
		Tags:     tags,
		Content:  strings.TrimSpace(p.Content),
		Priority: pri,
	})
	if err != nil {
		return MemoryResult{}, err
	}
	return toMemoryResult(m, 0), nil
}

// Update changes the memory under key. A missing key returns ErrNotFound.
func (s *MemoryStore) Update(ctx context.Context, key string, p UpdateMemoryParams) (MemoryResult, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" && p.Tags == nil && p.Priority == "" {
		return MemoryResult{}, &model.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	var tags []model.Tag
	if p.Tags != nil {
		var err error
		if tags, err = parseTags(p.Tags); err != nil {
			return MemoryResult{}, err
		}
		if len(tags) == 0 {
			return MemoryResult{}, &model.ValidationError{Field: "tags", Reason: "at least one tag is required"}
		}
	}
	var pri model.Priority
	if p.Priority != "" {
		var err error
		if pri, err = parsePriority(p.Priority); err != nil {
			return MemoryResult{}, err
		}
	}

	m, err := s.entries.Update(ctx, key, func(m *model.Memory) error {
		if content != "" {
			m.Content = content
		}
		if tags != nil {
			m.Tags = tags
		}
		if pri != "" {
			m.Priority = pri
		}
		return nil
	})
	if err != nil {
		return MemoryResult{}, err
	}
	return toMemoryResult(m, 0), nil
}

// Delete removes the memory under key and reports whether it existed.
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.entries.Delete(ctx, key)
}

// Get returns the memory under key.
func (s *MemoryStore) Get(key string) (MemoryResult, bool) {
	m, ok := s.entries.Get(key)
	if !ok {
		return MemoryResult{}, false
	}
	return toMemoryResult(m, 0), true
}

// All returns every memory in insertion order with score 0.
func (s *MemoryStore) All() []MemoryResult {
	list := s.entries.List()
	out := make([]MemoryResult, 0, len(list))
	for _, m := range list {
		out = append(out, toMemoryResult(m, 0))
	}
	return out
}

// Len returns the number of memories.
func (s *MemoryStore) Len() int { return s.entries.Len() }

// Location names the backing store.
func (s *MemoryStore) Location() string { return s.entries.Location() }

// Close releases the backend.
func (s *MemoryStore) Close() error { return s.entries.Close() }

func toMemoryResult(m model.Memory, score float64) MemoryResult {
	tags := make([]model.Tag, len(m.Tags))
	copy(tags, m.Tags)
	return MemoryResult{
		Key:            m.Key,
		Tags:           tags,
		Content:        m.Content,
		Priority:       string(m.Priority),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		ReferenceCount: m.ReferenceCount,
		Score:          score,
	}
}

func parseTags(in []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(in))
	for _, s := range in {
		tags = append(tags, model.Tag(strings.TrimSpace(s)))
	}
	if bad := model.InvalidTags(tags); len(bad) > 0 {
		return nil, &model.ValidationError{
			Field:  "tags",
			Values: bad,
			Reason: "must be from " + strings.Join(model.TagValues(), ", "),
		}
	}
	return model.FilterTags(tags), nil
}

// parsePriority maps an empty value to the default priority.
func parsePriority(s string) (model.Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.DefaultPriority, nil
	}
	return model.ParsePriority(s)
}
