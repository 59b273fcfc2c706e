// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/rentline/internal/metrics"
)

func TestRecorderWritesOnServe(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	rec := NewRecorder(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Serve(ctx) }()

	rec.Record(context.Background(), Event{Type: EventSearch, Attributes: map[string]string{"q": "loft"}})
	rec.Record(context.Background(), Event{Type: EventPageView})

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, _ := store.Count(context.Background(), Filter{})
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("events not written, count = %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}

	got, _ := store.Query(context.Background(), Filter{Types: []EventType{EventSearch}})
	if len(got) != 1 || got[0].ID == "" || got[0].Timestamp.IsZero() {
		t.Errorf("recorded event missing ID or timestamp: %+v", got)
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	store := NewMemoryStore(100)
	rec := NewRecorder(store, 2)

	before := testutil.ToFloat64(metrics.AnalyticsEventsDropped)
	for i := 0; i < 5; i++ {
		rec.Record(context.Background(), Event{Type: EventPageView})
	}
	if got := testutil.ToFloat64(metrics.AnalyticsEventsDropped) - before; got != 3 {
		t.Errorf("dropped = %v, want 3", got)
	}

	// Serve drains what was buffered on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = rec.Serve(ctx)
	if n, _ := store.Count(context.Background(), Filter{}); n != 2 {
		t.Errorf("stored = %d, want 2", n)
	}
}

func TestRetentionCleaner(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	seedEvents(t, store)

	c := NewRetentionCleaner(store, 3*time.Hour, time.Hour)
	c.now = func() time.Time { return baseTime.Add(10 * time.Hour) }

	if n := c.RunOnce(context.Background()); n != 7 {
		t.Errorf("RunOnce removed %d, want 7", n)
	}
	if n, _ := store.Count(context.Background(), Filter{}); n != 3 {
		t.Errorf("remaining = %d, want 3", n)
	}
}
