package monitor

import (
	"context"
	"sync"
	"time"
)

// InMemoryWindowStore keeps one sliding window of failure timestamps per key.
type InMemoryWindowStore struct {
	mu      sync.Mutex
	window  time.Duration
	windows map[string]*slidingWindow
}

type slidingWindow struct {
	entries map[string]time.Time
	latest  time.Time
}

func NewInMemoryWindowStore(window time.Duration) *InMemoryWindowStore {
	return &InMemoryWindowStore{
		window:  window,
		windows: make(map[string]*slidingWindow),
	}
}

// RecordFailure adds member at time at and returns how many failures fall in
// (at-window, at]. Entries older than the window behind the newest one are dropped.
func (s *InMemoryWindowStore) RecordFailure(_ context.Context, key, member string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{entries: make(map[string]time.Time)}
		s.windows[key] = w
	}
	w.entries[member] = at
	if at.After(w.latest) {
		w.latest = at
	}

	horizon := w.latest.Add(-s.window)
	lower := at.Add(-s.window)
	count := 0
	for m, ts := range w.entries {
		if !ts.After(horizon) {
			delete(w.entries, m)
			continue
		}
		if ts.After(lower) && !ts.After(at) {
			count++
		}
	}
	return count, nil
}

// PruneIdle removes windows whose newest failure is older than the window at now.
func (s *InMemoryWindowStore) PruneIdle(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	pruned := 0
	for key, w := range s.windows {
		if !w.latest.After(cutoff) {
			delete(s.windows, key)
			pruned++
		}
	}
	return pruned, nil
}

// Len returns the number of tracked keys.
func (s *InMemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
