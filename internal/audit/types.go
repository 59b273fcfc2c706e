// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authentication
	EventTypeAuthSuccess EventType = "auth.success"
	EventTypeAuthFailure EventType = "auth.failure"
	EventTypeAuthLockout EventType = "auth.lockout"

	// Authorization
	EventTypeAuthzDenied EventType = "authz.denied"

	// Listings
	EventTypePropertyCreated      EventType = "property.created"
	EventTypePropertyUpdated      EventType = "property.updated"
	EventTypePropertyDeleted      EventType = "property.deleted"
	EventTypePropertyImageAdded   EventType = "property.image_added"
	EventTypePropertyImageRemoved EventType = "property.image_removed"

	// Inquiries
	EventTypeContactStatus      EventType = "contact.status"
	EventTypeContactDeleted     EventType = "contact.deleted"
	EventTypeApplicationStatus  EventType = "application.status"
	EventTypeApplicationDeleted EventType = "application.deleted"

	// Leads
	EventTypeLeadUpdated EventType = "lead.updated"
	EventTypeLeadDeleted EventType = "lead.deleted"

	// Backups
	EventTypeBackupCreated EventType = "backup.created"
	EventTypeBackupDeleted EventType = "backup.deleted"

	// Digest
	EventTypeDigestSent EventType = "digest.sent"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audited action.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Outcome     Outcome         `json:"outcome"`
	Actor       Actor           `json:"actor"`
	Target      *Target         `json:"target,omitempty"`
	Source      Source          `json:"source"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Actor is the staff user, or the attempted username for failed logins.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Target is the record an action touched.
type Target struct {
	// Type is property, contact, application, lead or a request path.
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Source is where a request came from.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns one page of matching events, newest first, and the
	// total number of matches.
	Query(ctx context.Context, filter Filter) ([]Event, int, error)

	// Delete removes events older than the cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// Filter selects audit events. Zero fields match everything.
type Filter struct {
	Types    []EventType
	Outcome  Outcome
	Actor    string
	TargetID string
	Since    time.Time
	Until    time.Time
	// Search matches the description case-insensitively.
	Search string
	Limit  int
	Offset int
}
