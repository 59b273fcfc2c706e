// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package main is the entry point for the Rentline server.

Rentline serves a property rental website's API: listing search, contact and
application forms, and a lead-qualification assistant that talks to
prospective tenants over SMS, WhatsApp, voice and web chat.

# Application Architecture

	RootSupervisor ("rentline")
	├── DataSupervisor ("data-layer")
	│   ├── analytics recorder and retention cleaner
	│   ├── cache janitors
	│   ├── backup scheduler
	│   └── similar listings trainer
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket hub (admin live feed)
	│   ├── conversation follow-up (optional)
	│   └── staff digest email (optional)
	└── APISupervisor ("api-layer")
	    ├── HTTP server (chi)
	    ├── login lockout cleanup
	    └── staff audit trail

Startup order:

 1. Configuration: koanf defaults, optional config.yaml, environment
 2. Logging: zerolog, JSON or console
 3. Stores: JSON collections under DATA_DIR, analytics in BadgerDB
 4. Services: listings, inquiries, responder chain, conversation engine
 5. Auth: staff users, JWT, lockout, casbin policy
 6. Supervisor tree, then the HTTP server inside it

# Configuration

Required:
  - JWT_SECRET: 32+ character secret for session tokens
  - ADMIN_USERNAME, ADMIN_PASSWORD: the first staff account

Channels:
  - TWILIO_ENABLED, TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER
  - PUBLIC_URL must match the webhook URL set in Twilio when
    TWILIO_VALIDATE_SIGNATURES is on

Reply generation:
  - AI_PROVIDERS=openai,gemini with OPENAI_API_KEY and GEMINI_API_KEY.
    Built-in templates answer when no provider is configured or all fail.

# Example

	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin
	export ADMIN_PASSWORD=change-me-please
	export SEED_SAMPLE=true
	./rentline

# Backups

Backups of the data directory, uploads and analytics store are written to
BACKUP_DIR every BACKUP_INTERVAL and can be taken on demand from
POST /api/v1/admin/backups.

# Staff Digest

With DIGEST_ENABLED=true a summary of new leads, pending handoffs and the
conversation funnel is sent on DIGEST_SCHEDULE (cron, default Mondays
08:00 in DIGEST_TIMEZONE) through the configured email or webhook
notifier.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to ten seconds, the analytics recorder flushes its buffer and the Badger
store is closed.
*/
package main
