// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package authz decides what each staff role may do in the admin API, using
Casbin RBAC with path patterns.

The embedded policy (policy.csv) grants:

  - agent: read everything under /api/v1/admin; write contacts,
    applications and leads
  - admin: everything, and inherits agent

HTTP methods map to actions: GET/HEAD/OPTIONS read, POST/PUT/PATCH write,
DELETE delete. A model or policy file on disk can replace the embedded ones
through EnforcerConfig.

Usage Example:

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
	    return err
	}
	r.Route("/api/v1/admin", func(r chi.Router) {
	    r.Use(authn.Authenticate, authz.NewMiddleware(enforcer).AuthorizeRequest)
	    ...
	})
*/
package authz
