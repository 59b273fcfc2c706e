// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/validation"
)

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=120"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse is returned on a successful login. The token is also set
// as an HTTP-only cookie for the admin SPA.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Login authenticates a staff user. Failed attempts are counted both per
// username and per client IP.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(rw, err, "")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	userKey := "user:" + strings.ToLower(strings.TrimSpace(req.Username))
	ipKey := "ip:" + clientIP(r)
	for _, key := range []string{userKey, ipKey} {
		if locked, remaining := h.Lockout.CheckLocked(key); locked {
			h.Audit.LogAuthFailure(r, req.Username, "locked out")
			respondLocked(w, rw, remaining)
			return
		}
	}

	user, err := h.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Login failed")
			rw.InternalError("Login failed")
			return
		}
		lockedUser, remUser := h.Lockout.RecordFailedAttempt(userKey)
		lockedIP, remIP := h.Lockout.RecordFailedAttempt(ipKey)
		logging.Ctx(r.Context()).Warn().
			Str("username", logging.SanitizeValue("username", req.Username)).
			Str("ip", clientIP(r)).
			Msg("Invalid login attempt")
		if lockedUser || lockedIP {
			h.Audit.LogAuthLockout(r, req.Username, max(remUser, remIP))
			respondLocked(w, rw, max(remUser, remIP))
			return
		}
		h.Audit.LogAuthFailure(r, req.Username, "invalid credentials")
		rw.Unauthorized("Invalid username or password")
		return
	}

	h.Lockout.RecordSuccessfulLogin(userKey)
	h.Lockout.RecordSuccessfulLogin(ipKey)

	token, expiresAt, err := h.JWT.GenerateToken(user.Username, user.Role)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate token")
		rw.InternalError("Failed to generate authentication token")
		return
	}
	auth.SetSessionCookie(w, token, expiresAt, h.Config.Security.CookieSecure)

	logging.Ctx(r.Context()).Info().Str("username", user.Username).Str("role", user.Role).Msg("Staff login")
	h.Audit.LogAuthSuccess(r, user.Username, user.Role)
	rw.Success(LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Role:      user.Role,
	})
}

func respondLocked(w http.ResponseWriter, rw *ResponseWriter, remaining time.Duration) {
	secs := int(math.Ceil(remaining.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	rw.ErrorWithDetails(http.StatusTooManyRequests, ErrCodeAccountLocked,
		"Too many failed login attempts, try again later",
		map[string]int{"retry_after_seconds": secs})
}

// Logout clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.Config.Security.CookieSecure)
	NewResponseWriter(w, r).Success(map[string]bool{"logged_out": true})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	rw.Success(map[string]interface{}{
		"username":   claims.Username,
		"role":       claims.Role,
		"expires_at": expires,
	})
}

// clientIP is the host part of RemoteAddr, which chi's RealIP middleware
// has already replaced with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
