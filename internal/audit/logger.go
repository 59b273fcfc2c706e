// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package audit

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
)

const cleanupInterval = time.Hour

// Logger queues audit events and writes them from its Serve loop.
type Logger struct {
	cfg     config.AuditConfig
	store   Store
	events  chan *Event
	dropped atomic.Int64
}

// NewLogger creates a logger over store.
func NewLogger(store Store, cfg config.AuditConfig) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	return &Logger{
		cfg:    cfg,
		store:  store,
		events: make(chan *Event, cfg.BufferSize),
	}
}

// Serve writes queued events and prunes expired ones until ctx ends,
// then drains the queue.
func (l *Logger) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if l.cfg.Retention > 0 {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-l.events:
					l.write(ev)
				default:
					return ctx.Err()
				}
			}
		case ev := <-l.events:
			l.write(ev)
		case <-tick:
			l.cleanup(ctx)
		}
	}
}

// String implements fmt.Stringer for suture.
func (l *Logger) String() string { return "audit-logger" }

func (l *Logger) write(ev *Event) {
	if l.cfg.LogToStdout {
		if data, err := json.Marshal(ev); err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, ev); err != nil {
		logging.Error().Err(err).Str("type", string(ev.Type)).Msg("Failed to save audit event")
	}
}

func (l *Logger) cleanup(ctx context.Context) {
	n, err := l.store.Delete(ctx, time.Now().Add(-l.cfg.Retention))
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup error")
		return
	}
	if n > 0 {
		logging.Info().Int64("count", n).Msg("Cleaned up old audit events")
	}
}

// Log queues an event. It never blocks; a full queue drops the event.
func (l *Logger) Log(ev *Event) {
	if l == nil || !l.cfg.Enabled {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Severity == "" {
		ev.Severity = SeverityInfo
	}
	select {
	case l.events <- ev:
	default:
		l.dropped.Add(1)
		logging.Warn().Str("type", string(ev.Type)).Msg("Audit event buffer full, dropping event")
	}
}

// Dropped returns the number of events lost to a full queue.
func (l *Logger) Dropped() int64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Query reads from the store.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Event, int, error) {
	return l.store.Query(ctx, filter)
}

// LogAuthSuccess records a staff login.
func (l *Logger) LogAuthSuccess(r *http.Request, username, role string) {
	l.Log(&Event{
		Type:        EventTypeAuthSuccess,
		Outcome:     OutcomeSuccess,
		Actor:       Actor{Name: username, Role: role},
		Source:      SourceFromRequest(r),
		Description: "login succeeded",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LogAuthFailure records a rejected login for the attempted username.
func (l *Logger) LogAuthFailure(r *http.Request, username, reason string) {
	l.Log(&Event{
		Type:        EventTypeAuthFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       Actor{Name: logging.SanitizeValue("username", username)},
		Source:      SourceFromRequest(r),
		Description: "login failed: " + reason,
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LogAuthLockout records a username or address being locked out.
func (l *Logger) LogAuthLockout(r *http.Request, username string, remaining time.Duration) {
	l.Log(&Event{
		Type:        EventTypeAuthLockout,
		Severity:    SeverityCritical,
		Outcome:     OutcomeFailure,
		Actor:       Actor{Name: logging.SanitizeValue("username", username)},
		Source:      SourceFromRequest(r),
		Description: "login locked out",
		Metadata:    mustJSON(map[string]int{"locked_seconds": int(remaining.Seconds())}),
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LogAuthzDenied records a request the policy refused.
func (l *Logger) LogAuthzDenied(r *http.Request, action string) {
	l.Log(&Event{
		Type:        EventTypeAuthzDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       ActorFromRequest(r),
		Target:      &Target{Type: "path", ID: r.URL.Path},
		Source:      SourceFromRequest(r),
		Description: action + " denied",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LogAdminAction records a successful admin mutation.
func (l *Logger) LogAdminAction(r *http.Request, typ EventType, target Target, description string) {
	l.Log(&Event{
		Type:        typ,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromRequest(r),
		Target:      &target,
		Source:      SourceFromRequest(r),
		Description: description,
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// SourceFromRequest reads the client address after chi's RealIP has run.
func SourceFromRequest(r *http.Request) Source {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}

// ActorFromRequest reads the authenticated staff user, or "anonymous".
func ActorFromRequest(r *http.Request) Actor {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return Actor{Name: claims.Username, Role: claims.Role}
	}
	return Actor{Name: "anonymous"}
}
