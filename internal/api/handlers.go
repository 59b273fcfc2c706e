// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/backup"
	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/digest"
	"github.com/tomtom215/rentline/internal/inquiry"
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/recommend"
	"github.com/tomtom215/rentline/internal/upload"
	ws "github.com/tomtom215/rentline/internal/websocket"
)

// Deps are the services the HTTP layer calls into.
type Deps struct {
	Config    *config.Config
	Version   string
	Listings  *listing.Service
	Inquiries *inquiry.Service
	Engine    *conversation.Engine
	Analytics *analytics.Service
	Uploads   *upload.Store
	Users     *auth.UserStore
	JWT       *auth.JWTManager
	Lockout   *auth.LockoutManager
	Hub       *ws.Hub
	Audit     *audit.Logger
	Backups   *backup.Manager
	Similar   *recommend.Engine
	Digest    *digest.Scheduler
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by area:
//   - handlers_health.go: health, liveness and readiness
//   - handlers_auth.go: staff login, logout, current user
//   - handlers_properties.go: public search and admin property CRUD
//   - handlers_similar.go: similar listings
//   - handlers_inquiry.go: contact and application forms, admin review
//   - handlers_conversation.go: web chat, leads and viewings
//   - handlers_webhooks.go: Twilio SMS, WhatsApp and voice callbacks
//   - handlers_analytics.go: tracking beacon and admin analytics
//   - handlers_websocket.go: admin live feed
//   - handlers_audit.go: staff audit trail
//   - handlers_backup.go: data snapshots
//   - handlers_digest.go: staff digest preview and send
type Handler struct {
	Deps
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{Deps: deps, startTime: time.Now()}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts same-host origins and the configured CORS
// origins. Browsers always send Origin on websocket handshakes, so a
// missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	if h.Config != nil {
		for _, allowed := range h.Config.Security.CORSOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
	}

	logging.Ctx(r.Context()).Warn().
		Str("origin", logging.SanitizeValue("origin", origin)).
		Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
