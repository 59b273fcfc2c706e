// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package analytics records and summarizes site and conversation events.

Events are written asynchronously by a Recorder into a Store (BadgerDB in
production, an in-memory ring for tests and small deployments). The admin
summary is computed over a time window and cached in a single TTL cache.

Event Flow:

	handler/engine -> Recorder.Record (non-blocking)
	               -> buffered channel
	               -> Recorder.Serve writer loop
	               -> Store.Save

When the buffer is full the event is dropped and counted in
analytics_events_dropped_total; a request is never held up by analytics.
*/
package analytics

import (
	"time"
)

// EventType names what happened.
type EventType string

// Site events, accepted from the public tracking endpoint.
const (
	EventPageView     EventType = "page_view"
	EventPropertyView EventType = "property_view"
	EventSearch       EventType = "search"
	EventChatOpened   EventType = "chat_opened"
)

// Server-side events.
const (
	EventContactSubmitted         EventType = "contact_submitted"
	EventApplicationSubmitted     EventType = "application_submitted"
	EventApplicationStatusChanged EventType = "application_status_changed"
	EventConversationStarted      EventType = "conversation_started"
	EventMessageReceived          EventType = "message_received"
	EventMessageSent              EventType = "message_sent"
	EventStateChanged             EventType = "state_changed"
	EventLeadQualified            EventType = "lead_qualified"
	EventViewingRequested         EventType = "viewing_requested"
	EventOptedOut                 EventType = "opted_out"
	EventHandoffRequested         EventType = "handoff_requested"
	EventFollowUpSent             EventType = "follow_up_sent"
)

// IsPublic reports whether browsers may submit events of this type.
func (t EventType) IsPublic() bool {
	switch t {
	case EventPageView, EventPropertyView, EventSearch, EventChatOpened:
		return true
	}
	return false
}

// Event is one analytics log entry.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Timestamp  time.Time         `json:"timestamp"`
	Channel    string            `json:"channel,omitempty"`
	LeadID     string            `json:"lead_id,omitempty"`
	PropertyID string            `json:"property_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Filter selects events. Zero values mean "no constraint". Results are
// returned newest first.
type Filter struct {
	Types      []EventType
	Since      time.Time
	Until      time.Time
	Channel    string
	LeadID     string
	PropertyID string
	Limit      int
	Offset     int
}

// Matches reports whether e passes every constraint except paging.
func (f *Filter) Matches(e *Event) bool {
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
		return false
	}
	if f.Channel != "" && e.Channel != f.Channel {
		return false
	}
	if f.LeadID != "" && e.LeadID != f.LeadID {
		return false
	}
	if f.PropertyID != "" && e.PropertyID != f.PropertyID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}
