// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package services adapts components that do not already speak suture's
Serve(ctx) error into supervised services.

Most Rentline components (the analytics recorder, websocket hub, follow-up
scheduler, caches, lockout cleanup) implement Serve themselves. The HTTP
server does not, so HTTPServerService turns ListenAndServe plus Shutdown
into a context-aware Serve:

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Setup()}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

On cancellation the server drains connections for up to the shutdown
timeout. A listen failure is returned so the supervisor can retry with
backoff.
*/
package services
