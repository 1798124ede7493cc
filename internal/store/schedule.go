package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/welld/agent-memory/internal/model"
)

// AddScheduleParams holds the caller-supplied fields of a new schedule.
type AddScheduleParams struct {
	Deadline string
	Content  string
	Priority string
}

// UpdateScheduleParams holds the fields to change. Zero values keep the
// current value.
type UpdateScheduleParams struct {
	Content  string
	Deadline string
	Priority string
}

// ScheduleResult is a schedule as returned to callers.
type ScheduleResult struct {
	ScheduleID string `json:"schedule_id"`
	Deadline   string `json:"deadline"`
	Content    string `json:"content"`
	Priority   string `json:"priority"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ScheduleStore keeps deadline-bound items with date range lookup.
type ScheduleStore struct {
	entries *Collection[model.Schedule, *model.Schedule]
	opts    Options
}

// NewScheduleStore creates an empty store over backend. Call Load next.
func NewScheduleStore(backend Backend, opts Options) *ScheduleStore {
	opts = opts.withDefaults()
	return &ScheduleStore{
		entries: NewCollection[model.Schedule]("schedule", backend, scheduleKey, opts),
		opts:    opts,
	}
}

// OpenScheduleStore creates a store and loads it. The returned error
// reports a degraded load; the store is usable regardless.
func OpenScheduleStore(ctx context.Context, backend Backend, opts Options) (*ScheduleStore, []Skipped, error) {
	s := NewScheduleStore(backend, opts)
	skipped, err := s.Load(ctx)
	return s, skipped, err
}

// scheduleKey is random: several schedules may share a deadline.
func scheduleKey(_ time.Time, taken func(string) bool) string {
	for {
		k := uuid.NewString()
		if !taken(k) {
			return k
		}
	}
}

// Load reads the backend, replacing the in-memory set.
func (s *ScheduleStore) Load(ctx context.Context) ([]Skipped, error) {
	return s.entries.Load(ctx)
}

// Add validates and stores a new schedule.
func (s *ScheduleStore) Add(ctx context.Context, p AddScheduleParams) (ScheduleResult, error) {
	deadline := strings.TrimSpace(p.Deadline)
	if err := model.ValidateDeadline(deadline); err != nil {
		return ScheduleResult{}, err
	}
	pri, err := parsePriority(p.Priority)
	if err != nil {
		return ScheduleResult{}, err
	}

	e, err := s.entries.Add(ctx, model.Schedule{
		Deadline: deadline,
		Content:  strings.TrimSpace(p.Content),
		Priority: pri,
	})
	if err != nil {
		return ScheduleResult{}, err
	}
	return toScheduleResult(e), nil
}

// Update changes the schedule under id. A missing id returns ErrNotFound.
func (s *ScheduleStore) Update(ctx context.Context, id string, p UpdateScheduleParams) (ScheduleResult, error) {
	content := strings.TrimSpace(p.Content)
	deadline := strings.TrimSpace(p.Deadline)
	if content == "" && deadline == "" && p.Priority == "" {
		return ScheduleResult{}, &model.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if deadline != "" {
		if err := model.ValidateDeadline(deadline); err != nil {
			return ScheduleResult{}, err
		}
	}
	var pri model.Priority
	if p.Priority != "" {
		var err error
		if pri, err = parsePriority(p.Priority); err != nil {
			return ScheduleResult{}, err
		}
	}

	e, err := s.entries.Update(ctx, id, func(e *model.Schedule) error {
		if content != "" {
			e.Content = content
		}
		if deadline != "" {
			e.Deadline = deadline
		}
		if pri != "" {
			e.Priority = pri
		}
		return nil
	})
	if err != nil {
		return ScheduleResult{}, err
	}
	return toScheduleResult(e), nil
}

// Delete removes the schedule under id and reports whether it existed.
func (s *ScheduleStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.entries.Delete(ctx, id)
}

// Get returns the schedule under id.
func (s *ScheduleStore) Get(id string) (ScheduleResult, bool) {
	e, ok := s.entries.Get(id)
	if !ok {
		return ScheduleResult{}, false
	}
	return toScheduleResult(e), true
}

// All returns every schedule in insertion order.
func (s *ScheduleStore) All() []ScheduleResult {
	list := s.entries.List()
	out := make([]ScheduleResult, 0, len(list))
	for _, e := range list {
		out = append(out, toScheduleResult(e))
	}
	return out
}

// SearchRange returns the schedules whose deadline date lies between
// daysBefore days before today and daysAfter days after it, inclusive,
// with today taken in the reference timezone. Results are sorted by
// deadline.
func (s *ScheduleStore) SearchRange(daysBefore, daysAfter int) []ScheduleResult {
	lower, upper := s.DateRange(daysBefore, daysAfter)

	out := []ScheduleResult{}
	for _, e := range s.entries.List() {
		d := e.Date()
		if lower <= d && d <= upper {
			out = append(out, toScheduleResult(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline < out[j].Deadline
	})
	return out
}

// DateRange returns the YYYYMMDD bounds SearchRange compares against.
func (s *ScheduleStore) DateRange(daysBefore, daysAfter int) (lower, upper string) {
	now := s.opts.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	lower = today.AddDate(0, 0, -daysBefore).Format(model.DateLayout)
	upper = today.AddDate(0, 0, daysAfter).Format(model.DateLayout)
	return lower, upper
}

// Len returns the number of schedules.
func (s *ScheduleStore) Len() int { return s.entries.Len() }

// Location names the backing store.
func (s *ScheduleStore) Location() string { return s.entries.Location() }

// Close releases the backend.
func (s *ScheduleStore) Close() error { return s.entries.Close() }

func toScheduleResult(e model.Schedule) ScheduleResult {
	return ScheduleResult{
		ScheduleID: e.Key,
		Deadline:   e.Deadline,
		Content:    e.Content,
		Priority:   string(e.Priority),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
