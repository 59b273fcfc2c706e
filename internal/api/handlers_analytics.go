// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/validation"
)

// TrackRequest is a browser analytics beacon.
type TrackRequest struct {
	Type       analytics.EventType `json:"type" validate:"required,max=32"`
	PropertyID string              `json:"property_id" validate:"max=64"`
	SessionID  string              `json:"session_id" validate:"max=64"`
	Attributes map[string]string   `json:"attributes" validate:"max=10,dive,keys,max=64,endkeys,max=256"`
}

// TrackEvent queues a public site event. Only page_view, property_view,
// search and chat_opened are accepted.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req TrackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(rw, err, "Event")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}
	if !req.Type.IsPublic() {
		rw.ValidationError(validation.NewError("type", "oneof", "type must be one of page_view, property_view, search, chat_opened"))
		return
	}

	h.Analytics.Record(r.Context(), analytics.Event{
		Type:       req.Type,
		Channel:    "web",
		PropertyID: req.PropertyID,
		SessionID:  req.SessionID,
		Attributes: req.Attributes,
	})
	rw.Accepted(map[string]bool{"queued": true})
}

// AnalyticsSummary returns the cached dashboard aggregate. ?days sets the
// window and ?refresh=true recomputes it.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := newQueryParams(r)
	days := q.integer("days", analytics.DefaultWindowDays, 1, analytics.MaxWindowDays)
	refresh := q.optBool("refresh")
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	sum, err := h.Analytics.Summary(r.Context(), days, refresh != nil && *refresh)
	if err != nil {
		respondServiceError(rw, err, "Summary")
		return
	}
	rw.Success(sum)
}

// AnalyticsEvents returns raw events, newest first.
func (h *Handler) AnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := newQueryParams(r)
	f := analytics.Filter{
		Since:      q.timestamp("since"),
		Until:      q.timestamp("until"),
		Channel:    q.str("channel"),
		LeadID:     q.str("lead_id"),
		PropertyID: q.str("property_id"),
		Limit:      q.integer("limit", 100, 1, 1000),
		Offset:     q.integer("offset", 0, 0, 1_000_000),
	}
	for _, t := range q.list("types") {
		f.Types = append(f.Types, analytics.EventType(t))
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		q.fail("until", "gtefield", "until must not be before since")
	}
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	events, total, err := h.Analytics.Events(r.Context(), f)
	if err != nil {
		respondServiceError(rw, err, "Event")
		return
	}
	rw.SuccessWithPagination(events, NewPagination(total, len(events), f.Offset, f.Limit))
}
