package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welld/agent-memory/internal/model"
)

func mustAddSchedule(t *testing.T, s *ScheduleStore, deadline, content string) ScheduleResult {
	t.Helper()
	r, err := s.Add(context.Background(), AddScheduleParams{Deadline: deadline, Content: content, Priority: "mid"})
	if err != nil {
		t.Fatalf("add schedule: %v", err)
	}
	return r
}

func TestScheduleAddAndGet(t *testing.T) {
	s, _ := newTestScheduleStore(t)

	r := mustAddSchedule(t, s, "202506011500", "Team meeting")
	_, err := uuid.Parse(r.ScheduleID)
	assert.NoError(t, err, "schedule ids are uuids")
	assert.Equal(t, "20250601120000", r.CreatedAt)

	got, ok := s.Get(r.ScheduleID)
	require.True(t, ok)
	assert.Equal(t, r, got)

	// several schedules may share a deadline
	other := mustAddSchedule(t, s, "202506011500", "Call mom")
	assert.NotEqual(t, r.ScheduleID, other.ScheduleID)
}

func TestScheduleRejectsBadDeadline(t *testing.T) {
	s, _ := newTestScheduleStore(t)

	for _, d := range []string{"", "2025060115", "2025-06-01 15:00", "202513011500", "202502301200"} {
		_, err := s.Add(context.Background(), AddScheduleParams{Deadline: d, Content: "x"})
		var verr *model.ValidationError
		if assert.ErrorAs(t, err, &verr, d) {
			assert.Equal(t, "deadline", verr.Field)
		}
	}
	assert.Zero(t, s.Len())
}

func TestScheduleSearchRange(t *testing.T) {
	s, _ := newTestScheduleStore(t)

	tomorrow := mustAddSchedule(t, s, "202506020900", "Dentist")
	yesterday := mustAddSchedule(t, s, "202505312200", "Dinner")
	mustAddSchedule(t, s, "202506111000", "Trip")
	today := mustAddSchedule(t, s, "202506010700", "Gym")

	got := s.SearchRange(1, 1)
	require.Len(t, got, 3)
	assert.Equal(t, []string{yesterday.ScheduleID, today.ScheduleID, tomorrow.ScheduleID},
		[]string{got[0].ScheduleID, got[1].ScheduleID, got[2].ScheduleID})

	assert.Len(t, s.SearchRange(0, 0), 1)
	assert.Len(t, s.SearchRange(0, 10), 3)
	assert.Empty(t, s.SearchRange(-2, -1), "inverted range is empty")
}

func TestScheduleSearchRangeUsesReferenceTimezone(t *testing.T) {
	// 2025-05-31 20:00 UTC is already June 1st in JST.
	utc := time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC)
	s := NewScheduleStore(&memBackend{}, Options{Now: fixedClock(utc)})
	mustAddSchedule(t, s, "202506010900", "Breakfast")

	lower, upper := s.DateRange(0, 0)
	assert.Equal(t, "20250601", lower)
	assert.Equal(t, "20250601", upper)
	assert.Len(t, s.SearchRange(0, 0), 1)
}

func TestScheduleUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduleStore(t)
	r := mustAddSchedule(t, s, "202506011500", "Team meeting")

	got, err := s.Update(ctx, r.ScheduleID, UpdateScheduleParams{Deadline: "202506021500"})
	require.NoError(t, err)
	assert.Equal(t, "202506021500", got.Deadline)
	assert.Equal(t, "Team meeting", got.Content)

	_, err = s.Update(ctx, r.ScheduleID, UpdateScheduleParams{Deadline: "tomorrow"})
	assert.Error(t, err)

	_, err = s.Update(ctx, uuid.NewString(), UpdateScheduleParams{Content: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))

	ok, err := s.Delete(ctx, r.ScheduleID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, r.ScheduleID)
	require.NoError(t, err)
	assert.False(t, ok)
}
