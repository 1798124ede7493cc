package store

import (
	"sort"

	"github.com/goccy/go-json"
)

// MemoryStats summarizes the memory collection.
type MemoryStats struct {
	TotalMemories int            `json:"total_memories"`
	KeyRange      KeyRange       `json:"key_range"`
	TagCounts     map[string]int `json:"tag_counts"`
	MostUsedTags  []TagCount     `json:"most_used_tags"`
}

// KeyRange holds the lexically smallest and largest well-formed keys.
// Both are nil when no key has the memory_YYYYMMDDHHMMSS form.
type KeyRange struct {
	Earliest *string `json:"earliest"`
	Latest   *string `json:"latest"`
}

// TagCount is one histogram bucket. It encodes as a [tag, count] pair.
type TagCount struct {
	Tag   string
	Count int
}

func (t TagCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Tag, t.Count})
}

// MostUsedLimit caps MemoryStats.MostUsedTags.
const MostUsedLimit = 5

// Stats returns the entry count, key range and tag usage.
func (s *MemoryStore) Stats() MemoryStats {
	list := s.entries.List()
	st := MemoryStats{
		TotalMemories: len(list),
		TagCounts:     map[string]int{},
		MostUsedTags:  []TagCount{},
	}

	var order []string
	for _, m := range list {
		if memoryKeyPattern.MatchString(m.Key) {
			k := m.Key
			if st.KeyRange.Earliest == nil || k < *st.KeyRange.Earliest {
				st.KeyRange.Earliest = &k
			}
			if st.KeyRange.Latest == nil || k > *st.KeyRange.Latest {
				st.KeyRange.Latest = &k
			}
		}
		for _, t := range m.Tags {
			if _, seen := st.TagCounts[string(t)]; !seen {
				order = append(order, string(t))
			}
			st.TagCounts[string(t)]++
		}
	}

	for _, t := range order {
		st.MostUsedTags = append(st.MostUsedTags, TagCount{Tag: t, Count: st.TagCounts[t]})
	}
	sort.SliceStable(st.MostUsedTags, func(i, j int) bool {
		return st.MostUsedTags[i].Count > st.MostUsedTags[j].Count
	})
	if len(st.MostUsedTags) > MostUsedLimit {
		st.MostUsedTags = st.MostUsedTags[:MostUsedLimit]
	}
	return st
}
