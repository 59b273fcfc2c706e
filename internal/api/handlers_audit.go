// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/logging"
)

// auditFilter reads the shared audit query parameters.
func auditFilter(q *queryParams, defLimit, maxLimit int) audit.Filter {
	f := audit.Filter{
		Outcome:  audit.Outcome(q.str("outcome")),
		Actor:    q.str("actor"),
		TargetID: q.str("target_id"),
		Since:    q.timestamp("since"),
		Until:    q.timestamp("until"),
		Search:   q.str("q"),
		Limit:    q.integer("limit", defLimit, 1, maxLimit),
		Offset:   q.integer("offset", 0, 0, 1_000_000),
	}
	for _, t := range q.list("types") {
		f.Types = append(f.Types, audit.EventType(t))
	}
	if f.Outcome != "" && f.Outcome != audit.OutcomeSuccess && f.Outcome != audit.OutcomeFailure {
		q.fail("outcome", "oneof", "outcome must be success or failure")
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		q.fail("until", "gtefield", "until must not be before since")
	}
	return f
}

// AuditEvents pages through the staff audit trail, newest first.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.Audit == nil {
		rw.ServiceUnavailable("Audit logging is disabled")
		return
	}
	q := newQueryParams(r)
	f := auditFilter(q, 100, 1000)
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	events, total, err := h.Audit.Query(r.Context(), f)
	if err != nil {
		respondServiceError(rw, err, "Audit event")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	rw.SuccessWithPagination(events, NewPagination(int64(total), len(events), f.Offset, f.Limit))
}

// AuditExport downloads matching events as JSON or CEF.
func (h *Handler) AuditExport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.Audit == nil {
		rw.ServiceUnavailable("Audit logging is disabled")
		return
	}
	q := newQueryParams(r)
	f := auditFilter(q, 10000, 10000)
	exporter, err := audit.ExporterFor(q.str("format"))
	if err != nil {
		q.fail("format", "oneof", "format must be json or cef")
	}
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	events, _, err := h.Audit.Query(r.Context(), f)
	if err != nil {
		respondServiceError(rw, err, "Audit event")
		return
	}
	body, err := exporter.Export(events)
	if err != nil {
		rw.InternalError("Failed to export audit events")
		return
	}

	ext := "json"
	if _, ok := exporter.(*audit.CEFExporter); ok {
		ext = "cef"
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		`attachment; filename="rentline-audit-`+time.Now().UTC().Format("20060102")+"."+ext+`"`)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Audit export write failed")
	}
}
