package store

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/welld/agent-memory/internal/model"
)

// DefaultContextBudget is the character budget used when none is given.
const DefaultContextBudget = 4000

// minExcerpt is the smallest remaining budget worth an excerpt.
const minExcerpt = 100

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Query  string
	Tag    string
	Budget int // max characters of content in the output
}

// ContextMemory is a memory selected for the prompt.
type ContextMemory struct {
	Key      string      `json:"key"`
	Tags     []model.Tag `json:"tags"`
	Priority string      `json:"priority"`
	Content  string      `json:"content"`
	Score    float64     `json:"score,omitempty"`
	Excerpt  bool        `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget   int             `json:"budget"`
	Used     int             `json:"used"`
	Memories []ContextMemory `json:"memories"`
}

// Context picks memories for a prompt within a character budget. With a
// query the candidates are every search match, otherwise every memory
// (optionally restricted to Tag). Candidates are ordered by priority,
// then score, then most recent update, and packed greedily; the first
// one that does not fit is excerpted if enough budget remains.
// Reference counts are not touched.
func (s *MemoryStore) Context(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	var candidates []MemoryResult
	if p.Query != "" {
		var err error
		if candidates, err = s.rank(p.Query, p.Tag, 0); err != nil {
			return nil, err
		}
	} else {
		var filter model.Tag
		if p.Tag != "" {
			t, err := model.ParseTag(p.Tag)
			if err != nil {
				return nil, &model.ValidationError{Field: "tag", Values: []string{p.Tag}, Reason: "not in the tag list"}
			}
			filter = t
		}
		for _, m := range s.entries.List() {
			if filter == "" || m.HasTag(filter) {
				candidates = append(candidates, toMemoryResult(m, 0))
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		ra, rb := model.Priority(a.Priority).Rank(), model.Priority(b.Priority).Rank()
		if ra != rb {
			return ra > rb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.UpdatedAt > b.UpdatedAt
	})

	result := &ContextResult{Budget: budget, Memories: []ContextMemory{}}
	used := 0
	for _, c := range candidates {
		n := utf8.RuneCountInString(c.Content)
		cm := ContextMemory{
			Key:      c.Key,
			Tags:     c.Tags,
			Priority: c.Priority,
			Content:  c.Content,
			Score:    c.Score,
		}
		if used+n <= budget {
			result.Memories = append(result.Memories, cm)
			used += n
			continue
		}
		if remaining := budget - used; remaining >= minExcerpt {
			cm.Content = string([]rune(c.Content)[:remaining]) + "..."
			cm.Excerpt = true
			result.Memories = append(result.Memories, cm)
			used += remaining
		}
		break
	}
	result.Used = used
	return result, nil
}
