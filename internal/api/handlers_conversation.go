// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/validation"
)

// ChatRequest is one message from the website chat widget. SessionID is
// empty on the first message.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,uuid4"`
	Message   string `json:"message" validate:"max=2000"`
	Name      string `json:"name" validate:"max=120"`
}

// ChatResponse carries the reply and the session to continue with.
type ChatResponse struct {
	SessionID string           `json:"session_id"`
	Reply     string           `json:"reply"`
	State     models.LeadState `json:"state"`
	End       bool             `json:"end"`
}

// Chat runs one web chat turn through the qualification engine.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(rw, err, "Chat")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}
	out, err := h.Engine.Handle(r.Context(), conversation.Inbound{
		Channel: models.ChannelWeb,
		Address: req.SessionID,
		Body:    req.Message,
		Name:    req.Name,
	})
	if err != nil {
		respondServiceError(rw, err, "Chat")
		return
	}
	rw.Success(ChatResponse{
		SessionID: out.Lead.Address,
		Reply:     out.Reply,
		State:     out.State,
		End:       out.End,
	})
}

// ListLeads lists leads filtered by state, temperature, channel and handoff.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := newQueryParams(r)
	f := conversation.LeadFilter{
		State:       models.LeadState(q.str("state")),
		Temperature: models.Temperature(q.str("temperature")),
		Channel:     models.Channel(q.str("channel")),
		Handoff:     q.optBool("handoff"),
	}
	limit := q.integer("limit", 50, 1, 500)
	offset := q.integer("offset", 0, 0, 1_000_000)
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	leads, err := h.Engine.ListLeads(r.Context(), f)
	if err != nil {
		respondServiceError(rw, err, "Lead")
		return
	}
	total := len(leads)
	page := []models.Lead{}
	if offset < total {
		page = leads[offset:min(offset+limit, total)]
	}
	rw.SuccessWithPagination(page, NewPagination(int64(total), len(page), offset, limit))
}

// GetLead returns one lead with its message history.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	lead, err := h.Engine.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err, "Lead")
		return
	}
	rw.Success(lead)
}

// UpdateLead renames a lead, resolves a handoff or resets its state.
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.LeadUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Lead")
		return
	}
	id := chi.URLParam(r, "id")
	lead, err := h.Engine.UpdateLead(r.Context(), id, &in)
	if err != nil {
		respondServiceError(rw, err, "Lead")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeLeadUpdated, audit.Target{Type: "lead", ID: id}, "lead updated")
	rw.Success(lead)
}

// DeleteLead removes a lead and its history.
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Engine.DeleteLead(r.Context(), id); err != nil {
		respondServiceError(NewResponseWriter(w, r), err, "Lead")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeLeadDeleted, audit.Target{Type: "lead", ID: id}, "lead deleted")
	NewResponseWriter(w, r).NoContent()
}

// ListViewings lists requested viewings, newest first.
func (h *Handler) ListViewings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	viewings, err := h.Engine.ListViewings(r.Context())
	if err != nil {
		respondServiceError(rw, err, "Viewing")
		return
	}
	rw.SuccessWithPagination(viewings, NewPagination(int64(len(viewings)), len(viewings), 0, len(viewings)))
}
