// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package notify tells staff about new contacts, applications, viewing
// requests and handoffs.
//
// Notifiers:
//   - Email: SMTP with STARTTLS when the server offers it
//   - Webhook: JSON POST with a Slack-compatible "text" field
//   - Multi: fans one notification out to several notifiers
//
// Delivery failures are logged and counted; they are never surfaced to the
// visitor whose submission triggered the notification.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
)

// Kind names what happened.
type Kind string

// Notification kinds.
const (
	KindContact     Kind = "contact_submitted"
	KindApplication Kind = "application_submitted"
	KindViewing     Kind = "viewing_requested"
	KindHandoff     Kind = "handoff_requested"
	KindDigest      Kind = "staff_digest"
)

// Notification is one staff alert.
type Notification struct {
	Kind    Kind              `json:"kind"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	Fields  map[string]string `json:"fields,omitempty"`
	At      time.Time         `json:"at"`
}

// Body renders the text followed by the fields in key order.
func (n *Notification) Body() string {
	var b strings.Builder
	b.WriteString(n.Text)
	if len(n.Fields) == 0 {
		return b.String()
	}
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, n.Fields[k])
	}
	return b.String()
}

// Notifier delivers notifications.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n *Notification) error
}

// Nop discards notifications.
type Nop struct{}

// Name implements Notifier.
func (Nop) Name() string { return "nop" }

// Notify implements Notifier.
func (Nop) Notify(context.Context, *Notification) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

// Name implements Notifier.
func (m Multi) Name() string { return "multi" }

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n *Notification) error {
	var errs []error
	for _, nt := range m {
		err := nt.Notify(ctx, n)
		result := "success"
		if err != nil {
			result = "error"
			errs = append(errs, fmt.Errorf("%s: %w", nt.Name(), err))
		}
		metrics.NotificationsSent.WithLabelValues(nt.Name(), result).Inc()
	}
	return errors.Join(errs...)
}

// Dispatcher sends notifications in the background with a timeout.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
}

// NewDispatcher wraps a notifier. A nil notifier disables delivery.
func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if n == nil {
		n = Nop{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

// Send delivers n in a new goroutine and returns immediately. The request
// context is only used for log correlation; delivery outlives the request.
func (d *Dispatcher) Send(ctx context.Context, n Notification) {
	if _, ok := d.notifier.(Nop); ok {
		return
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	log := logging.Ctx(ctx).With().Str("notification", string(n.Kind)).Logger()

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(sendCtx, &n); err != nil {
			log.Warn().Err(err).Msg("Staff notification failed")
			return
		}
		log.Debug().Msg("Staff notification sent")
	}()
}

// SendSync delivers n and waits for the result.
func (d *Dispatcher) SendSync(ctx context.Context, n Notification) error {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.notifier.Notify(sendCtx, &n)
}

// FromConfig builds the configured notifiers, or Nop when none are set.
func FromConfig(cfg config.NotifyConfig) Notifier {
	var m Multi
	if cfg.EmailEnabled() {
		m = append(m, NewEmail(EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			To:       cfg.EmailTo,
		}))
	}
	if cfg.WebhookURL != "" {
		m = append(m, NewWebhook(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}))
	}
	if len(m) == 0 {
		return Nop{}
	}
	return m
}
