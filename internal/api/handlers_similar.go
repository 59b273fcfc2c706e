// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSimilar = 4
	maxSimilar     = 12
)

// SimilarProperties suggests available listings like {ref}. Hidden
// listings 404 the same way GetProperty does.
func (h *Handler) SimilarProperties(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.Similar == nil {
		rw.ServiceUnavailable("Similar listings are not available")
		return
	}
	q := newQueryParams(r)
	n := q.integer("limit", defaultSimilar, 1, maxSimilar)
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	p, err := h.Listings.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	if !p.Available {
		rw.NotFound("Property not found")
		return
	}

	items, err := h.Similar.Similar(r.Context(), p.ID, n)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	rw.Success(items)
}
