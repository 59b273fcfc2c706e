// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var baseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newBadgerTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	s := NewBadgerStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// storeImpls runs fn against every Store implementation.
func storeImpls(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, NewMemoryStore(1000))
	})
	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		fn(t, newBadgerTestStore(t))
	})
}

// seedEvents saves ten events one hour apart: even ones are page views,
// odd ones property views of "p1" over sms.
func seedEvents(t *testing.T, s Store) {
	t.Helper()
	for i := 0; i < 10; i++ {
		e := Event{
			ID:        fmt.Sprintf("e%02d", i),
			Type:      EventPageView,
			Timestamp: baseTime.Add(time.Duration(i) * time.Hour),
		}
		if i%2 == 1 {
			e.Type = EventPropertyView
			e.PropertyID = "p1"
			e.Channel = "sms"
		}
		if err := s.Save(context.Background(), &e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func ids(events []Event) string {
	out := ""
	for i := range events {
		if i > 0 {
			out += ","
		}
		out += events[i].ID
	}
	return out
}

func TestStoreQuery(t *testing.T) {
	t.Parallel()

	storeImpls(t, func(t *testing.T, s Store) {
		seedEvents(t, s)
		ctx := context.Background()

		tests := []struct {
			name   string
			filter Filter
			want   string
			count  int64
		}{
			{"newest first with limit", Filter{Limit: 3}, "e09,e08,e07", 10},
			{"offset", Filter{Limit: 2, Offset: 2}, "e07,e06", 10},
			{"type", Filter{Types: []EventType{EventPageView}, Limit: 2}, "e08,e06", 5},
			{"window", Filter{Since: baseTime.Add(2 * time.Hour), Until: baseTime.Add(5 * time.Hour)}, "e04,e03,e02", 3},
			{"property and channel", Filter{PropertyID: "p1", Channel: "sms", Since: baseTime.Add(6 * time.Hour)}, "e09,e07", 2},
			{"no match", Filter{LeadID: "nobody"}, "", 0},
		}
		for _, tt := range tests {
			got, err := s.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("%s: Query: %v", tt.name, err)
			}
			if ids(got) != tt.want {
				t.Errorf("%s: Query = %s, want %s", tt.name, ids(got), tt.want)
			}
			n, err := s.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("%s: Count: %v", tt.name, err)
			}
			if n != tt.count {
				t.Errorf("%s: Count = %d, want %d", tt.name, n, tt.count)
			}
		}
	})
}

func TestStoreDeleteBefore(t *testing.T) {
	t.Parallel()

	storeImpls(t, func(t *testing.T, s Store) {
		seedEvents(t, s)
		ctx := context.Background()

		n, err := s.DeleteBefore(ctx, baseTime.Add(4*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if n != 4 {
			t.Errorf("DeleteBefore removed %d, want 4", n)
		}
		left, _ := s.Count(ctx, Filter{})
		if left != 6 {
			t.Errorf("remaining = %d, want 6", left)
		}
		oldest, _ := s.Query(ctx, Filter{Until: baseTime.Add(5 * time.Hour)})
		if ids(oldest) != "e04" {
			t.Errorf("oldest remaining = %s", ids(oldest))
		}
	})
}

func TestMemoryStoreCap(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10)
	seedEvents(t, s)
	extra := Event{ID: "e10", Type: EventSearch, Timestamp: baseTime.Add(10 * time.Hour)}
	if err := s.Save(context.Background(), &extra); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Count(context.Background(), Filter{})
	if n != 10 {
		t.Errorf("Count = %d after overflow, want 10", n)
	}
	got, _ := s.Query(context.Background(), Filter{Since: baseTime, Until: baseTime.Add(time.Hour)})
	if len(got) != 0 {
		t.Error("oldest event should have been discarded")
	}
}

func TestMemoryStoreKeepsTimeOrder(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(100)
	ctx := context.Background()
	for _, h := range []int{3, 1, 2} {
		e := Event{ID: fmt.Sprintf("h%d", h), Type: EventSearch, Timestamp: baseTime.Add(time.Duration(h) * time.Hour)}
		if err := s.Save(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.Query(ctx, Filter{})
	if ids(got) != "h3,h2,h1" {
		t.Errorf("Query = %s, want h3,h2,h1", ids(got))
	}
}

func TestEventTypeIsPublic(t *testing.T) {
	t.Parallel()

	for _, et := range []EventType{EventPageView, EventPropertyView, EventSearch, EventChatOpened} {
		if !et.IsPublic() {
			t.Errorf("%s should be public", et)
		}
	}
	for _, et := range []EventType{EventLeadQualified, EventContactSubmitted, "made_up"} {
		if et.IsPublic() {
			t.Errorf("%s should not be public", et)
		}
	}
}
