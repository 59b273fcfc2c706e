// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"

	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/logging"
	ws "github.com/tomtom215/rentline/internal/websocket"
)

// WebSocket upgrades an authenticated staff connection onto the live feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		NewResponseWriter(w, r).Unauthorized("Authentication required")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ws.NewClient(h.Hub, conn, claims.Username).Start()
}
