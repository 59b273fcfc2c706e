// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package supervisor runs Rentline's long-lived goroutines under suture v4.

Services are grouped into three layers so a crash in one does not take the
others down:

	RootSupervisor ("rentline")
	├── DataSupervisor ("data-layer")
	│   ├── analytics-recorder
	│   ├── analytics-retention
	│   ├── cache janitors (analytics summary, authz decisions)
	│   ├── backup-scheduler (when BACKUP_ENABLED)
	│   └── recommend-trainer (when SIMILAR_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── conversation-follow-up (when enabled and Twilio is configured)
	│   └── staff-digest (when DIGEST_ENABLED)
	└── APISupervisor ("api-layer")
	    ├── http-server
	    ├── auth-lockout-cleanup
	    └── audit-logger (when AUDIT_ENABLED)

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, which main wires to the zerolog backend.

Usage:

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{})
	if err != nil {
	    logging.Fatal().Err(err).Msg("supervisor")
	}
	tree.Install(supervisor.Components{
	    Recorder: recorder,
	    Hub:      hub,
	    HTTP:     services.NewHTTPServerService(srv, 10*time.Second),
	})
	err = tree.Serve(ctx)
*/
package supervisor
