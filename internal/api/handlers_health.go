// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
)

const readyTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status      string          `json:"status"`
	Version     string          `json:"version"`
	Uptime      float64         `json:"uptime_seconds"`
	Checks      map[string]bool `json:"checks"`
	Twilio      bool            `json:"twilio_enabled"`
	LLMs        []string        `json:"llm_providers"`
	WSClients   int             `json:"websocket_clients"`
	Environment string          `json:"environment,omitempty"`
}

// checks probes the JSON store and the analytics log.
func (h *Handler) checks(ctx context.Context) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	out := map[string]bool{}
	if h.Listings != nil {
		_, err := h.Listings.All(ctx)
		out["store"] = err == nil
	}
	if h.Analytics != nil {
		_, _, err := h.Analytics.Events(ctx, analytics.Filter{Limit: 1})
		out["analytics"] = err == nil
	}
	return out
}

func allOK(checks map[string]bool) bool {
	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

// Health reports component status. It always answers 200; use
// HealthReady for load balancer decisions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.checks(r.Context())
	status := "healthy"
	if !allOK(checks) {
		status = "degraded"
	}

	hs := HealthStatus{
		Status:  status,
		Version: h.Version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Checks:  checks,
		LLMs:    []string{},
	}
	if h.Config != nil {
		hs.Twilio = h.Config.Twilio.Enabled
		hs.LLMs = append(hs.LLMs, h.Config.AI.Providers...)
		hs.Environment = h.Config.Server.Environment
	}
	if h.Hub != nil {
		hs.WSClients = h.Hub.GetClientCount()
	}
	NewResponseWriter(w, r).Success(hs)
}

// HealthLive returns 200 while the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 503 until the store and analytics log answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := h.checks(r.Context())
	rw := NewResponseWriter(w, r)
	if !allOK(checks) {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", checks)
		return
	}
	rw.Success(map[string]interface{}{"ready": true, "checks": checks})
}
