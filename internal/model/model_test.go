package model

import (
	"errors"
	"strings"
	"testing"
)

func TestTagValid(t *testing.T) {
	for _, tag := range AllTags() {
		if !tag.Valid() {
			t.Errorf("expected %q to be valid", tag)
		}
		if _, ok := TagExamples[tag]; !ok {
			t.Errorf("missing examples for %q", tag)
		}
	}
	for _, s := range []string{"", "Hobby", "sports", " hobby"} {
		if Tag(s).Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() > PriorityMid.Rank() && PriorityMid.Rank() > PriorityLow.Rank()) {
		t.Error("expected high > mid > low")
	}
	if Priority("urgent").Valid() {
		t.Error("expected urgent to be invalid")
	}
	if got := strings.Join(PriorityValues(), ","); got != "high,mid,low" {
		t.Errorf("unexpected priority order %q", got)
	}
}

func TestParsePriority(t *testing.T) {
	for _, s := range PriorityValues() {
		if p, err := ParsePriority(s); err != nil || string(p) != s {
			t.Errorf("ParsePriority(%q) = %q, %v", s, p, err)
		}
	}

	_, err := ParsePriority("urgent")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	if verr.Field != "priority" || len(verr.Values) != 1 || verr.Values[0] != "urgent" {
		t.Errorf("unexpected error %+v", verr)
	}
	if !strings.Contains(err.Error(), "urgent") {
		t.Errorf("expected %q to name the value", err.Error())
	}
}

func TestFilterTags(t *testing.T) {
	got := FilterTags([]Tag{"hobby", "sports", "hobby", "goal"})
	if len(got) != 2 || got[0] != TagHobby || got[1] != TagGoal {
		t.Errorf("unexpected filtered tags %v", got)
	}
}

func TestMemoryApplyDefaults(t *testing.T) {
	m := Memory{Tags: []Tag{"nope"}, Content: "x", ReferenceCount: -3}
	m.ApplyDefaults()
	if m.Priority != PriorityMid {
		t.Errorf("expected mid, got %q", m.Priority)
	}
	if len(m.Tags) != 1 || m.Tags[0] != FallbackTag {
		t.Errorf("expected fallback tag, got %v", m.Tags)
	}
	if m.ReferenceCount != 0 {
		t.Errorf("expected reference count 0, got %d", m.ReferenceCount)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("expected valid memory, got %v", err)
	}
}

func TestMemoryValidate(t *testing.T) {
	m := Memory{Tags: []Tag{TagHobby, "bogus"}, Content: "x", Priority: PriorityLow}
	err := m.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "tags" || len(verr.Values) != 1 || verr.Values[0] != "bogus" {
		t.Errorf("unexpected error %+v", verr)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error should name the offending tag: %v", err)
	}
}

func TestValidateDeadline(t *testing.T) {
	cases := map[string]bool{
		"202506011500":  true,
		"202512312359":  true,
		"202506011560":  false,
		"202502291200":  false,
		"20250601150":   false,
		"2025060115000": false,
		"abcdefghijkl":  false,
	}
	for d, ok := range cases {
		err := ValidateDeadline(d)
		if ok && err != nil {
			t.Errorf("%s: unexpected error %v", d, err)
		}
		if !ok && err == nil {
			t.Errorf("%s: expected an error", d)
		}
	}
}

func TestScheduleDate(t *testing.T) {
	s := Schedule{Deadline: "202506011500"}
	if got := s.Date(); got != "20250601" {
		t.Errorf("expected 20250601, got %q", got)
	}
}
