// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists events.
type Store interface {
	// Save persists one event.
	Save(ctx context.Context, e *Event) error

	// Query returns events matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]Event, error)

	// Count returns the number of events matching the filter, ignoring paging.
	Count(ctx context.Context, f Filter) (int64, error)

	// DeleteBefore removes events older than cutoff and returns how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases resources.
	Close() error
}

// MemoryStore keeps events in a capped slice. The oldest tenth is
// discarded when the cap is reached.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{events: make([]Event, 0, 64), maxLen: maxLen}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := s.maxLen / 10
		if drop == 0 {
			drop = 1
		}
		s.events = append(s.events[:0], s.events[drop:]...)
	}

	// Keep time order even when the writer receives events slightly out of order.
	i := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Timestamp.After(e.Timestamp)
	})
	s.events = append(s.events, Event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = *e
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Event{}
	skipped := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		if !f.Matches(&s.events[i]) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, s.events[i])
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, f Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if f.Matches(&s.events[i]) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore implements Store.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Timestamp.Before(cutoff)
	})
	s.events = append(s.events[:0], s.events[i:]...)
	return i, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
