// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/inquiry"
	"github.com/tomtom215/rentline/internal/models"
)

// SubmissionReceipt is what the public forms get back.
type SubmissionReceipt struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitContact handles the public contact form.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Contact")
		return
	}
	c, err := h.Inquiries.SubmitContact(r.Context(), &in)
	if err != nil {
		respondServiceError(rw, err, "Contact")
		return
	}
	rw.Created(SubmissionReceipt{ID: c.ID, Status: string(c.Status), CreatedAt: c.CreatedAt})
}

// SubmitApplication handles the public rental application form.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.ApplicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Application")
		return
	}
	a, err := h.Inquiries.SubmitApplication(r.Context(), &in)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	rw.Created(SubmissionReceipt{ID: a.ID, Status: string(a.Status), CreatedAt: a.CreatedAt})
}

// ListContacts lists contact messages, optionally by status.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	contacts, err := h.Inquiries.ListContacts(r.Context(), models.ContactStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondServiceError(rw, err, "Contact")
		return
	}
	rw.SuccessWithPagination(contacts, NewPagination(int64(len(contacts)), len(contacts), 0, len(contacts)))
}

// ContactStatusRequest is the body of PATCH /admin/contacts/{id}/status.
type ContactStatusRequest struct {
	Status models.ContactStatus `json:"status"`
}

// SetContactStatus marks a contact read or archived.
func (h *Handler) SetContactStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ContactStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(rw, err, "Contact")
		return
	}
	id := chi.URLParam(r, "id")
	c, err := h.Inquiries.SetContactStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(rw, err, "Contact")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeContactStatus, audit.Target{Type: "contact", ID: id}, "status set to "+string(req.Status))
	rw.Success(c)
}

// DeleteContact removes a contact message.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Inquiries.DeleteContact(r.Context(), id); err != nil {
		respondServiceError(NewResponseWriter(w, r), err, "Contact")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeContactDeleted, audit.Target{Type: "contact", ID: id}, "contact deleted")
	NewResponseWriter(w, r).NoContent()
}

// ListApplications lists applications filtered by status and property_id.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()
	apps, err := h.Inquiries.ListApplications(r.Context(), inquiry.ApplicationFilter{
		Status:     models.ApplicationStatus(q.Get("status")),
		PropertyID: q.Get("property_id"),
	})
	if err != nil {
		respondServiceError(rw, err, "Application")
		return
	}
	rw.SuccessWithPagination(apps, NewPagination(int64(len(apps)), len(apps), 0, len(apps)))
}

// GetApplication returns one application.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	a, err := h.Inquiries.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err, "Application")
		return
	}
	rw.Success(a)
}

// TransitionApplication moves an application to a new review status.
func (h *Handler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.ApplicationStatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Application")
		return
	}
	id := chi.URLParam(r, "id")
	a, err := h.Inquiries.TransitionApplication(r.Context(), id, &in)
	if err != nil {
		respondServiceError(rw, err, "Application")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeApplicationStatus, audit.Target{Type: "application", ID: id}, "status set to "+string(in.Status))
	rw.Success(a)
}

// DeleteApplication removes an application.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Inquiries.DeleteApplication(r.Context(), id); err != nil {
		respondServiceError(NewResponseWriter(w, r), err, "Application")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeApplicationDeleted, audit.Target{Type: "application", ID: id}, "application deleted")
	NewResponseWriter(w, r).NoContent()
}
