package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, JST)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testOptions() Options {
	return Options{Now: fixedClock(testNow)}
}

func newTestMemoryStore(t *testing.T) (*MemoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	s, _, err := OpenMemoryStore(context.Background(), NewFileBackend(path), testOptions())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func newTestScheduleStore(t *testing.T) (*ScheduleStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, _, err := OpenScheduleStore(context.Background(), NewFileBackend(path), testOptions())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func mustAddMemory(t *testing.T, s *MemoryStore, content string, tags ...string) MemoryResult {
	t.Helper()
	m, err := s.Add(context.Background(), AddMemoryParams{Tags: tags, Content: content, Priority: "mid"})
	if err != nil {
		t.Fatalf("add memory: %v", err)
	}
	return m
}

var errDiskFull = errors.New("disk full")

// memBackend keeps records in memory and fails writes on demand.
type memBackend struct {
	mu      sync.Mutex
	recs    []Record
	failing bool
	writes  int
}

func (b *memBackend) Read(ctx context.Context) ([]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Record(nil), b.recs...), nil
}

func (b *memBackend) Write(ctx context.Context, recs []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return errDiskFull
	}
	b.writes++
	b.recs = append([]Record(nil), recs...)
	return nil
}

func (b *memBackend) Location() string { return "memory" }

func (b *memBackend) Close() error { return nil }

func (b *memBackend) fail(on bool) {
	b.mu.Lock()
	b.failing = on
	b.mu.Unlock()
}
