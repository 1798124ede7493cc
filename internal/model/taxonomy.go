package model

import (
	"fmt"
	"strings"
)

// Tag categorizes a memory. The set is closed; a tag outside it is
// rejected on write and dropped on load.
type Tag string

const (
	TagHobby               Tag = "hobby"
	TagPersonalInformation Tag = "personal_information"
	TagPersonality         Tag = "personality"
	TagHabit               Tag = "habit"
	TagLearning            Tag = "learning"
	TagGoal                Tag = "goal"
	TagPreference          Tag = "preference"
	TagInstructionForAI    Tag = "instruction_for_ai"
)

// FallbackTag is assigned on load when none of an entry's tags are valid.
const FallbackTag = TagPersonality

var allTags = []Tag{
	TagHobby,
	TagPersonalInformation,
	TagPersonality,
	TagHabit,
	TagLearning,
	TagGoal,
	TagPreference,
	TagInstructionForAI,
}

// TagExamples gives a short example list per tag for tool descriptions.
var TagExamples = map[Tag]string{
	TagHobby:               "books, music, movies, games, drawing, etc.",
	TagPersonalInformation: "name, age, job, location, family, birth date, etc.",
	TagPersonality:         "kind, optimistic, introverted, logical, etc.",
	TagHabit:               "morning walk, daily meditation, journaling, exercising, etc.",
	TagLearning:            "Python, Spanish, machine learning, piano, etc.",
	TagGoal:                "get fit, launch a startup, pass an exam, write a book, etc.",
	TagPreference:          "likes coffee, dislikes spicy food, prefers remote work, etc.",
	TagInstructionForAI:    "always respond briefly, use polite tone, ask clarifying questions, etc.",
}

// AllTags returns every valid tag in declaration order.
func AllTags() []Tag {
	out := make([]Tag, len(allTags))
	copy(out, allTags)
	return out
}

// TagValues returns every valid tag as a string.
func TagValues() []string {
	out := make([]string, len(allTags))
	for i, t := range allTags {
		out[i] = string(t)
	}
	return out
}

// Valid reports whether t is a member of the tag enumeration.
func (t Tag) Valid() bool {
	for _, v := range allTags {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTag converts s to a Tag.
func ParseTag(s string) (Tag, error) {
	t := Tag(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid tag %q", s)
	}
	return t, nil
}

// Priority is the closed three-level ordinal attached to every entry.
type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityMid  Priority = "mid"
	PriorityLow  Priority = "low"
)

// DefaultPriority is used on load when an entry has none.
const DefaultPriority = PriorityMid

var allPriorities = []Priority{PriorityHigh, PriorityMid, PriorityLow}

// PriorityValues returns every priority as a string, highest first.
func PriorityValues() []string {
	out := make([]string, len(allPriorities))
	for i, p := range allPriorities {
		out[i] = string(p)
	}
	return out
}

// Valid reports whether p is a member of the priority enumeration.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: high=3, mid=2, low=1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMid:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParsePriority converts s to a Priority. A value outside the
// enumeration is a *ValidationError on the priority field.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", &ValidationError{
			Field:  "priority",
			Values: []string{s},
			Reason: "must be one of " + strings.Join(PriorityValues(), ", "),
		}
	}
	return p, nil
}
