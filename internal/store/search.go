package store

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/fuzzy"
	"github.com/welld/agent-memory/internal/model"
)

const (
	// SearchLimit caps the results of one search.
	SearchLimit = 5

	// ScoreCutoff is the lowest score a search result may have.
	ScoreCutoff = 20.0
)

// Search ranks memories by fuzzy similarity between query and content.
// With tag set, only memories carrying it are considered. At most
// SearchLimit results scoring ScoreCutoff or more are returned, best
// first; equal scores keep insertion order. Every returned memory has
// its reference count incremented.
func (s *MemoryStore) Search(ctx context.Context, query, tag string) ([]MemoryResult, error) {
	results, err := s.rank(query, tag, SearchLimit)
	if err != nil || len(results) == 0 {
		return results, err
	}

	keys := make([]string, len(results))
	for i := range results {
		keys[i] = results[i].Key
		results[i].ReferenceCount++
	}
	if err := s.entries.Apply(ctx, keys, func(m *model.Memory) { m.ReferenceCount++ }); err != nil {
		s.opts.Logger.Warn("reference count not persisted", zap.Error(err))
	}
	return results, nil
}

// rank scores candidates without touching reference counts. limit <= 0
// keeps every match.
func (s *MemoryStore) rank(query, tag string, limit int) ([]MemoryResult, error) {
	var filter model.Tag
	if tag = strings.TrimSpace(tag); tag != "" {
		t, err := model.ParseTag(tag)
		if err != nil {
			return nil, &model.ValidationError{
				Field:  "tag",
				Values: []string{tag},
				Reason: "must be from " + strings.Join(model.TagValues(), ", "),
			}
		}
		filter = t
	}

	results := []MemoryResult{}
	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}

	for _, m := range s.entries.List() {
		if filter != "" && !m.HasTag(filter) {
			continue
		}
		score := fuzzy.Score(query, m.Content)
		if score < ScoreCutoff {
			continue
		}
		results = append(results, toMemoryResult(m, score))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
