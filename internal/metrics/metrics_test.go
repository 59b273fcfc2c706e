// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/properties", "200"))
	RecordAPIRequest("GET", "/api/v1/properties", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/properties", "200"))

	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestRecordTransitionSkipsSameState(t *testing.T) {
	c := ConversationTransitions.WithLabelValues("qualifying", "qualifying")
	before := testutil.ToFloat64(c)
	RecordTransition("qualifying", "qualifying")
	if testutil.ToFloat64(c) != before {
		t.Error("same-state transition should not be counted")
	}

	moved := ConversationTransitions.WithLabelValues("greeting", "qualifying")
	before = testutil.ToFloat64(moved)
	RecordTransition("greeting", "qualifying")
	if testutil.ToFloat64(moved)-before != 1 {
		t.Error("expected greeting->qualifying to be counted")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if testutil.ToFloat64(APIActiveRequests) != before+1 {
		t.Error("expected gauge to increase")
	}
	TrackActiveRequest(false)
	if testutil.ToFloat64(APIActiveRequests) != before {
		t.Error("expected gauge to return to previous value")
	}
}

func TestRecordGeneration(t *testing.T) {
	c := ResponderGenerations.WithLabelValues("template", "success")
	before := testutil.ToFloat64(c)
	RecordGeneration("template", "success", time.Millisecond)
	if testutil.ToFloat64(c)-before != 1 {
		t.Error("expected generation to be counted")
	}
}
