// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package audit records what staff do in the admin API.

Logins, lockouts, denied requests and every admin mutation (property
edits, inquiry status changes, lead deletions) become an Event with the
acting user, the target record and the client address. Events are queued
without blocking the request and written by the Logger's Serve loop, which
also prunes events past the retention window.

The store is in memory and bounded. Admins read the trail through
GET /api/v1/admin/audit and can export it as JSON or CEF for a SIEM:

	logger := audit.NewLogger(audit.NewMemoryStore(cfg.Audit.MaxEvents), cfg.Audit)
	tree.AddAPIService(logger)
	logger.LogAdminAction(r, audit.EventTypeLeadDeleted, audit.Target{Type: "lead", ID: id}, "lead deleted")

All Log methods are safe on a nil *Logger.
*/
package audit
