// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/rentline/internal/auth"
)

func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func assertEnforce(t *testing.T, e *Enforcer, role, object, action string, want bool) {
	t.Helper()
	got, err := e.Enforce(role, object, action)
	if err != nil {
		t.Fatalf("Enforce(%s, %s, %s) error = %v", role, object, action, err)
	}
	if got != want {
		t.Errorf("Enforce(%s, %s, %s) = %v, want %v", role, object, action, got, want)
	}
}

func TestEmbeddedPolicy(t *testing.T) {
	t.Parallel()
	e := setupEnforcer(t)

	tests := []struct {
		role, object, action string
		want                 bool
	}{
		{"agent", "/api/v1/admin/properties", ActionRead, true},
		{"agent", "/api/v1/admin/properties", ActionWrite, false},
		{"agent", "/api/v1/admin/properties/p1", ActionDelete, false},
		{"agent", "/api/v1/admin/contacts/c1/status", ActionWrite, true},
		{"agent", "/api/v1/admin/applications/a1/status", ActionWrite, true},
		{"agent", "/api/v1/admin/leads/l1", ActionWrite, true},
		{"agent", "/api/v1/admin/leads/l1", ActionDelete, false},
		{"agent", "/api/v1/admin/ws", ActionRead, true},
		{"agent", "/api/v1/admin/analytics/summary", ActionRead, true},
		{"agent", "/api/v1/admin/audit", ActionRead, false},
		{"admin", "/api/v1/admin/audit/export", ActionRead, true},
		{"admin", "/api/v1/admin/properties", ActionWrite, true},
		{"admin", "/api/v1/admin/properties/p1/images/x.png", ActionDelete, true},
		{"admin", "/api/v1/admin/leads/l1", ActionWrite, true},
		{"viewer", "/api/v1/admin/leads", ActionRead, false},
		{"admin", "/api/v1/properties", ActionWrite, false},
	}
	for _, tt := range tests {
		assertEnforce(t, e, tt.role, tt.object, tt.action, tt.want)
	}

	// second lookup is served from the cache
	assertEnforce(t, e, "agent", "/api/v1/admin/properties", ActionWrite, false)
	if e.Cache() == nil || e.Cache().GetStats().Hits == 0 {
		t.Error("expected cache hits")
	}
	if len(e.GetPolicy()) == 0 {
		t.Error("embedded policy is empty")
	}
}

func TestPolicyFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, agent, /api/v1/admin/leads*, read\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if e.Cache() != nil {
		t.Error("zero TTL should disable the cache")
	}
	assertEnforce(t, e, "agent", "/api/v1/admin/leads", ActionRead, true)
	assertEnforce(t, e, "agent", "/api/v1/admin/properties", ActionRead, false)
}

func TestAuthorizeRequest(t *testing.T) {
	t.Parallel()
	mw := NewMiddleware(setupEnforcer(t))
	h := mw.AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		role   string
		method string
		path   string
		want   int
	}{
		{"no claims", "", http.MethodGet, "/api/v1/admin/leads", http.StatusForbidden},
		{"agent reads", auth.RoleAgent, http.MethodGet, "/api/v1/admin/leads", http.StatusNoContent},
		{"agent updates lead", auth.RoleAgent, http.MethodPatch, "/api/v1/admin/leads/l1", http.StatusNoContent},
		{"agent creates property", auth.RoleAgent, http.MethodPost, "/api/v1/admin/properties", http.StatusForbidden},
		{"agent deletes contact", auth.RoleAgent, http.MethodDelete, "/api/v1/admin/contacts/c1", http.StatusForbidden},
		{"admin deletes contact", auth.RoleAdmin, http.MethodDelete, "/api/v1/admin/contacts/c1", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.role != "" {
			req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Username: "u", Role: tt.role}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}
