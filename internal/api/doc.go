// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package api provides the HTTP layer for Rentline.

Key Components:

  - Router: chi route tree and middleware stack
  - Handler: request handlers, split by area across handlers_*.go
  - ResponseWriter: the JSON envelope shared by every endpoint
  - ChiMiddleware: go-chi/cors and per-group httprate limiters

Route Groups:

 1. Public (/api/v1/):
    - property search, featured listings, cities, property detail
    - similar listings (GET /properties/{ref}/similar)
    - contact and rental application forms
    - web chat (POST /chat) and the tracking beacon (POST /events)

 2. Auth (/api/v1/auth/): login, logout, me

 3. Webhooks (/webhooks/):
    - sms, whatsapp, voice, voice/gather and status callbacks from Twilio
    - replies are TwiML, not JSON
    - X-Twilio-Signature is checked when twilio.validate_signatures is set

 4. Admin (/api/v1/admin/):
    - JWT (bearer or session cookie) plus casbin authorization
    - properties with image upload, contacts, applications, leads,
      viewings, analytics summary and events, websocket feed
    - admin only: audit trail with JSON or CEF export, backups

 5. Ops: /api/v1/health{,/live,/ready} and /metrics

Response Format:

	{
	  "success": true,
	  "data": { ... },
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors carry "error": {"code": "VALIDATION_ERROR", "message": "...", "details": ...}.
List endpoints add meta.pagination.
*/
package api
