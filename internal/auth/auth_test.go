// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/rentline/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func newJWT(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: timeout})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	t.Parallel()
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("empty secret should fail")
	}
	m := newJWT(t, 0)
	if m.Timeout() != 24*time.Hour {
		t.Errorf("default timeout = %v", m.Timeout())
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()
	m := newJWT(t, time.Hour)

	token, expires, err := m.GenerateToken("alice", RoleAgent)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Errorf("expires = %v", expires)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "alice" || claims.Role != RoleAgent {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	t.Parallel()
	m := newJWT(t, time.Hour)

	expired := newJWT(t, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.GenerateToken("alice", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: "a_completely_different_secret_value_0987654321", SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	foreign, _, err := other.GenerateToken("alice", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "alice", Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	for name, token := range map[string]string{
		"expired":      old,
		"wrong secret": foreign,
		"alg none":     none,
		"garbage":      "not.a.token",
	} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Errorf("%s token accepted", name)
		}
	}
}

func TestUserStore(t *testing.T) {
	t.Parallel()

	agentHash, err := bcrypt.GenerateFromPassword([]byte("agent-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewUserStore(&config.SecurityConfig{
		AdminUsername: "Admin",
		AdminPassword: "admin-password",
		Users: []config.UserConfig{
			{Username: "sam", Password: string(agentHash)},
		},
	})
	if err != nil {
		t.Fatalf("NewUserStore() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d", s.Len())
	}

	u, err := s.Authenticate("admin", "admin-password")
	if err != nil || u.Role != RoleAdmin || u.Username != "Admin" {
		t.Errorf("admin login: %+v, %v", u, err)
	}
	u, err = s.Authenticate("sam", "agent-password")
	if err != nil || u.Role != RoleAgent {
		t.Errorf("agent login: %+v, %v", u, err)
	}

	for _, tc := range [][2]string{{"sam", "wrong"}, {"nobody", "agent-password"}, {"", ""}} {
		if _, err := s.Authenticate(tc[0], tc[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) err = %v", tc[0], err)
		}
	}

	users := s.Users()
	if len(users) != 2 || users[0].Username != "Admin" {
		t.Errorf("Users() = %+v", users)
	}
}

func TestUserStoreRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]*config.SecurityConfig{
		"short password": {AdminUsername: "admin", AdminPassword: "short"},
		"bad role": {Users: []config.UserConfig{
			{Username: "x", Password: "$2a$04$abcdefghijklmnopqrstuuMRT4iqL3vx2CJcl3DVrKa9KzGfZ8m3a", Role: "owner"},
		}},
		"invalid hash": {AdminUsername: "admin", AdminPassword: "$2a$04$not-a-valid-hash"},
		"duplicate": {AdminUsername: "admin", AdminPassword: "admin-password", Users: []config.UserConfig{
			{Username: "ADMIN", Password: "another-password"},
		}},
	}
	for name, cfg := range tests {
		if _, err := NewUserStore(cfg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLockout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	m := NewLockoutManager(LockoutConfig{MaxAttempts: 3, LockoutDuration: time.Minute, MaxLockoutDuration: 3 * time.Minute})
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if locked, _ := m.RecordFailedAttempt("alice"); locked {
			t.Fatalf("locked after %d attempts", i+1)
		}
	}
	locked, d := m.RecordFailedAttempt("alice")
	if !locked || d != time.Minute {
		t.Fatalf("third attempt: locked=%v d=%v", locked, d)
	}
	if locked, _ := m.CheckLocked("alice"); !locked {
		t.Error("CheckLocked should report the lock")
	}
	if locked, _ := m.CheckLocked("bob"); locked {
		t.Error("other users are not locked")
	}

	now = now.Add(2 * time.Minute)
	if locked, _ := m.CheckLocked("alice"); locked {
		t.Error("lock should expire")
	}
	for i := 0; i < 2; i++ {
		m.RecordFailedAttempt("alice")
	}
	if _, d := m.RecordFailedAttempt("alice"); d != 2*time.Minute {
		t.Errorf("second lockout = %v, want doubled", d)
	}

	now = now.Add(10 * time.Minute)
	for i := 0; i < 3; i++ {
		m.RecordFailedAttempt("alice")
	}
	if _, d := m.CheckLocked("alice"); d != 3*time.Minute {
		t.Errorf("third lockout = %v, want capped at max", d)
	}

	m.RecordSuccessfulLogin("alice")
	if locked, _ := m.CheckLocked("alice"); locked {
		t.Error("successful login should clear the lock")
	}

	m.RecordFailedAttempt("carol")
	now = now.Add(25 * time.Hour)
	if n := m.Cleanup(); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	t.Parallel()
	jm := newJWT(t, time.Hour)
	mw := NewMiddleware(jm)
	token, _, err := jm.GenerateToken("alice", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	var gotUser string
	h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFromContext(r.Context())
		if ok {
			gotUser = c.Username
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusNoContent},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/leads", nil)
		tt.setup(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
		if tt.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"UNAUTHORIZED"`) {
			t.Errorf("%s: body = %s", tt.name, rec.Body.String())
		}
	}
	if gotUser != "alice" {
		t.Errorf("claims user = %q", gotUser)
	}
}

func TestSessionCookie(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Now().Add(time.Hour), true)
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].Name != CookieName || !c[0].HttpOnly || !c[0].Secure || c[0].Value != "tok" {
		t.Errorf("cookie = %+v", c)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, false)
	c = rec.Result().Cookies()
	if len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("cleared cookie = %+v", c)
	}
}
