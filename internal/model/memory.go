// Package model defines the core entry types and their taxonomies.
package model

import (
	"fmt"
	"strings"
)

// Fixed-width layouts. All of them sort lexically in chronological order.
const (
	TimestampLayout = "20060102150405"
	DeadlineLayout  = "200601021504"
	DateLayout      = "20060102"
)

// Memory is a free-text fact about the user.
type Memory struct {
	Key            string   `json:"-"`
	Tags           []Tag    `json:"tags"`
	Content        string   `json:"content"`
	Priority       Priority `json:"priority"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	ReferenceCount int      `json:"reference_count"`
}

// Stamp sets both timestamps of a new entry.
func (m *Memory) Stamp(now string) {
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Touch bumps the update time.
func (m *Memory) Touch(now string) { m.UpdatedAt = now }

// SetKey records the key the entry is stored under.
func (m *Memory) SetKey(key string) { m.Key = key }

// ApplyDefaults normalizes a record read from disk: unknown or missing
// priority becomes mid, invalid tags are dropped and an empty tag set
// gets the fallback tag.
func (m *Memory) ApplyDefaults() {
	if !m.Priority.Valid() {
		m.Priority = DefaultPriority
	}
	if m.ReferenceCount < 0 {
		m.ReferenceCount = 0
	}
	m.Tags = FilterTags(m.Tags)
	if len(m.Tags) == 0 {
		m.Tags = []Tag{FallbackTag}
	}
}

// Validate checks the structural invariants of a memory.
func (m *Memory) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if len(m.Tags) == 0 {
		return &ValidationError{Field: "tags", Reason: "at least one tag is required"}
	}
	if bad := InvalidTags(m.Tags); len(bad) > 0 {
		return &ValidationError{Field: "tags", Values: bad, Reason: "not in the tag list"}
	}
	if !m.Priority.Valid() {
		return &ValidationError{Field: "priority", Values: []string{string(m.Priority)}, Reason: "must be one of " + strings.Join(PriorityValues(), ", ")}
	}
	return nil
}

// FilterTags keeps the valid tags of in, in order, without duplicates.
func FilterTags(in []Tag) []Tag {
	out := make([]Tag, 0, len(in))
	seen := make(map[Tag]bool, len(in))
	for _, t := range in {
		if t.Valid() && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// InvalidTags returns the members of in that are not valid tags.
func InvalidTags(in []Tag) []string {
	var bad []string
	for _, t := range in {
		if !t.Valid() {
			bad = append(bad, string(t))
		}
	}
	return bad
}

// HasTag reports whether the memory carries t.
func (m *Memory) HasTag(t Tag) bool {
	for _, v := range m.Tags {
		if v == t {
			return true
		}
	}
	return false
}

// ValidationError reports a rejected field and the offending values.
type ValidationError struct {
	Field  string
	Values []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Values) == 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Values, e.Reason)
}
