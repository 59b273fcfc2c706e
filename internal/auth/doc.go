// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package auth authenticates staff users of the admin API.

Key Components:

  - UserStore: staff accounts from configuration, bcrypt password hashes
  - JWTManager: HS256 session tokens carrying username and role
  - Lockout: temporary lockout after repeated failed logins
  - Middleware: reads the token from the Authorization header or the
    rentline_session cookie and puts the claims in the request context

Accounts:

The admin account comes from RENTLINE_ADMIN_USERNAME and
RENTLINE_ADMIN_PASSWORD. More accounts can be listed under security.users
in the YAML file, each with role admin or agent. A password may be given
in plain text (hashed at startup) or as a $2a$/$2b$ bcrypt hash.

Usage Example:

	users, err := auth.NewUserStore(&cfg.Security)
	if err != nil {
	    return err
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}

	user, err := users.Authenticate("alice", "correct horse")
	token, err := jwtManager.GenerateToken(user.Username, user.Role)

	r.With(auth.NewMiddleware(jwtManager).Authenticate).Get("/api/v1/admin/leads", h)

Authorization decisions (which role may do what) live in package authz.
*/
package auth
