// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/digest"
	"github.com/tomtom215/rentline/internal/logging"
)

// DigestPreviewResponse is the schedule plus the digest as it would be
// sent now.
type DigestPreviewResponse struct {
	Status digest.Status  `json:"status"`
	Report *digest.Report `json:"report"`
	Text   string         `json:"text"`
}

func (h *Handler) digestEnabled(rw *ResponseWriter) bool {
	if h.Digest == nil {
		rw.ServiceUnavailable("The staff digest is disabled")
		return false
	}
	return true
}

// DigestPreview renders the digest without sending it.
func (h *Handler) DigestPreview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.digestEnabled(rw) {
		return
	}
	report, text, err := h.Digest.Preview(r.Context())
	if err != nil {
		respondServiceError(rw, err, "Digest")
		return
	}
	rw.Success(DigestPreviewResponse{Status: h.Digest.Status(), Report: report, Text: text})
}

// SendDigest sends the digest now.
func (h *Handler) SendDigest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.digestEnabled(rw) {
		return
	}
	report, err := h.Digest.Send(r.Context(), digest.TriggerManual)
	if errors.Is(err, digest.ErrInProgress) {
		rw.Conflict("A digest is already being sent")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Manual digest failed")
		rw.Error(http.StatusBadGateway, ErrCodeServiceUnavailable, "Digest could not be delivered")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeDigestSent, audit.Target{Type: "digest"}, report.Subject())
	rw.Success(report)
}
