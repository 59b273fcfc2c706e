// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/notify"
)

// Triggers label metrics and logs.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// ErrInProgress is returned when a digest is already being sent.
var ErrInProgress = errors.New("digest already in progress")

// Sender delivers a rendered digest.
type Sender interface {
	SendSync(ctx context.Context, n notify.Notification) error
}

// Scheduler sends the digest on a cron schedule.
type Scheduler struct {
	builder *Builder
	sender  Sender
	cron    *Cron
	loc     *time.Location
	timeout time.Duration

	running sync.Mutex
	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a scheduler. loc defaults to UTC.
func NewScheduler(builder *Builder, sender Sender, cron *Cron, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{builder: builder, sender: sender, cron: cron, loc: loc, timeout: 2 * time.Minute}
}

// Preview builds and renders the digest without sending it.
func (s *Scheduler) Preview(ctx context.Context) (*Report, string, error) {
	r, err := s.builder.Build(ctx)
	if err != nil {
		return nil, "", err
	}
	text, err := r.Text()
	if err != nil {
		return nil, "", err
	}
	return r, text, nil
}

// Send builds and delivers one digest.
func (s *Scheduler) Send(ctx context.Context, trigger string) (*Report, error) {
	if !s.running.TryLock() {
		return nil, ErrInProgress
	}
	defer s.running.Unlock()

	r, text, err := s.Preview(ctx)
	if err == nil {
		err = s.sender.SendSync(ctx, notify.Notification{
			Kind:    notify.KindDigest,
			Subject: r.Subject(),
			Text:    text,
			Fields: map[string]string{
				"new_leads": strconv.Itoa(r.NewLeads),
				"handoffs":  strconv.Itoa(len(r.Handoffs)),
			},
		})
	}

	s.mu.Lock()
	s.lastRun, s.lastErr = time.Now().UTC(), err
	s.mu.Unlock()

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.DigestsSent.WithLabelValues(trigger, result).Inc()
	if err != nil {
		return nil, fmt.Errorf("send digest: %w", err)
	}
	logging.Info().Str("trigger", trigger).Int("new_leads", r.NewLeads).Msg("Staff digest sent")
	return r, nil
}

// Status reports the schedule and the last run.
type Status struct {
	Schedule  string     `json:"schedule"`
	Timezone  string     `json:"timezone"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Status returns the current schedule state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Schedule: s.cron.String(),
		Timezone: s.loc.String(),
		NextRun:  s.cron.NextRun(time.Now(), s.loc),
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Serve sleeps until each scheduled time and sends the digest.
func (s *Scheduler) Serve(ctx context.Context) error {
	for {
		next := s.cron.NextRun(time.Now(), s.loc)
		if next.IsZero() {
			logging.Warn().Str("schedule", s.cron.String()).Msg("Digest schedule never fires")
			<-ctx.Done()
			return ctx.Err()
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		if _, err := s.Send(runCtx, TriggerScheduled); err != nil && ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Scheduled digest failed")
		}
		cancel()
	}
}

// String implements fmt.Stringer for the supervisor.
func (s *Scheduler) String() string { return "staff-digest" }
