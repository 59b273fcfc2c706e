// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package middleware provides the chi-compatible HTTP middleware shared by every
route group.

Key Components:

  - RequestID: honours or issues X-Request-ID and seeds the logging context
  - AccessLog: one structured zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - SecurityHeaders: nosniff, frame denial, referrer policy, permissions
    policy, CSP and HSTS behind TLS

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)

Access the request ID in a handler with GetRequestID(r.Context()) or
logging.RequestIDFromContext.

See Also:

  - internal/auth: authentication middleware
  - internal/authz: role checks for the admin API
  - internal/metrics: Prometheus metric definitions
*/
package middleware
