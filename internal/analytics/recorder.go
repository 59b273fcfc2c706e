// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
)

// DefaultBufferSize is used when NewRecorder is given a non-positive size.
const DefaultBufferSize = 1024

const saveTimeout = 5 * time.Second

// Recorder buffers events and writes them from a single goroutine.
// Serve must be running for events to reach the store.
type Recorder struct {
	store  Store
	events chan *Event
	now    func() time.Time
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Recorder{
		store:  store,
		events: make(chan *Event, bufferSize),
		now:    time.Now,
	}
}

// Record queues an event. It never blocks; a full buffer drops the event.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}

	select {
	case r.events <- &e:
		metrics.AnalyticsBufferDepth.Set(float64(len(r.events)))
	default:
		metrics.AnalyticsEventsDropped.Inc()
		logging.Ctx(ctx).Warn().Str("event_type", string(e.Type)).Msg("Analytics buffer full, dropping event")
	}
}

// Serve runs the writer loop until ctx is cancelled, then drains what is
// already buffered. It implements suture.Service.
func (r *Recorder) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case e := <-r.events:
			r.write(e)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case e := <-r.events:
			r.write(e)
		default:
			return
		}
	}
}

func (r *Recorder) write(e *Event) {
	metrics.AnalyticsBufferDepth.Set(float64(len(r.events)))

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.store.Save(ctx, e); err != nil {
		logging.Error().Err(err).Str("event_type", string(e.Type)).Msg("Failed to save analytics event")
		return
	}
	metrics.AnalyticsEventsRecorded.WithLabelValues(string(e.Type)).Inc()
}

// String implements fmt.Stringer for supervisor logs.
func (r *Recorder) String() string { return "analytics-recorder" }

// RetentionCleaner deletes events older than the retention period on a
// fixed interval. It implements suture.Service.
type RetentionCleaner struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionCleaner creates a cleaner. A non-positive retention disables
// deletion; Serve then just waits for shutdown.
func NewRetentionCleaner(store Store, retention, interval time.Duration) *RetentionCleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionCleaner{store: store, retention: retention, interval: interval, now: time.Now}
}

// Serve implements suture.Service.
func (c *RetentionCleaner) Serve(ctx context.Context) error {
	if c.retention <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass.
func (c *RetentionCleaner) RunOnce(ctx context.Context) int {
	cutoff := c.now().Add(-c.retention)
	n, err := c.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Analytics retention cleanup failed")
		return 0
	}
	if n > 0 {
		logging.Info().Int("count", n).Time("cutoff", cutoff).Msg("Deleted expired analytics events")
	}
	return n
}

// String implements fmt.Stringer for supervisor logs.
func (c *RetentionCleaner) String() string { return "analytics-retention" }
