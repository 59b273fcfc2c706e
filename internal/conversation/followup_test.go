// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/messaging"
	"github.com/tomtom215/rentline/internal/models"
)

type fakeSender struct {
	mu      sync.Mutex
	enabled bool
	fail    bool
	sent    []string
}

func (f *fakeSender) Enabled() bool { return f.enabled }

func (f *fakeSender) Send(_ context.Context, ch models.Channel, to, body string) (*messaging.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("carrier unavailable")
	}
	f.sent = append(f.sent, string(ch)+"|"+to+"|"+body)
	return &messaging.SendResult{SID: "SM1", Status: "queued"}, nil
}

func TestFollowUpSendsOnce(t *testing.T) {
	t.Parallel()
	e, s, clock := newTestEngine(t, Config{})
	ctx := context.Background()

	send(t, e, models.ChannelSMS, "+15035550120", "2 bedrooms")
	send(t, e, models.ChannelWhatsApp, "+15035550121", "STOP")
	send(t, e, models.ChannelWeb, "", "2 bedrooms")
	send(t, e, models.ChannelSMS, "+15035550122", "agent please")

	sender := &fakeSender{enabled: true}
	f := NewFollowUp(e, sender, 24*time.Hour, time.Minute)

	n, err := f.RunOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("before idle window: sent %d, %v", n, err)
	}

	clock.advance(25 * time.Hour)
	n, err = f.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("after idle window: sent %d, %v", n, err)
	}
	if len(sender.sent) != 1 || !strings.HasPrefix(sender.sent[0], "sms|+15035550120|") {
		t.Fatalf("sent = %v", sender.sent)
	}
	if !strings.Contains(sender.sent[0], "budget") {
		t.Errorf("follow-up should ask the next question: %q", sender.sent[0])
	}

	leads, _ := e.ListLeads(ctx, LeadFilter{Channel: models.ChannelSMS})
	var lead models.Lead
	for _, l := range leads {
		if l.Address == "+15035550120" {
			lead = l
		}
	}
	if lead.FollowUpSentAt == nil {
		t.Fatal("FollowUpSentAt not set")
	}
	if last := lead.Messages[len(lead.Messages)-1]; last.Direction != models.Outbound {
		t.Errorf("last message = %+v", last)
	}
	if s.count(analytics.EventFollowUpSent) != 1 {
		t.Error("follow-up event not recorded")
	}

	clock.advance(48 * time.Hour)
	if n, _ := f.RunOnce(ctx); n != 0 {
		t.Errorf("second pass sent %d, want 0", n)
	}
}

func TestFollowUpResetsOnReply(t *testing.T) {
	t.Parallel()
	e, _, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	sender := &fakeSender{enabled: true}
	f := NewFollowUp(e, sender, time.Hour, time.Minute)

	send(t, e, models.ChannelSMS, "+15035550123", "hello")
	clock.advance(30 * time.Minute)
	send(t, e, models.ChannelSMS, "+15035550123", "2 bedrooms")
	clock.advance(45 * time.Minute)

	if n, _ := f.RunOnce(ctx); n != 0 {
		t.Errorf("recent reply should postpone the follow-up, sent %d", n)
	}
	clock.advance(time.Hour)
	if n, _ := f.RunOnce(ctx); n != 1 {
		t.Errorf("sent %d, want 1", n)
	}
}

func TestFollowUpDisabledOrFailing(t *testing.T) {
	t.Parallel()
	e, _, clock := newTestEngine(t, Config{})
	ctx := context.Background()

	send(t, e, models.ChannelSMS, "+15035550124", "hello")
	clock.advance(48 * time.Hour)

	if n, err := NewFollowUp(e, &fakeSender{}, time.Hour, time.Minute).RunOnce(ctx); n != 0 || err != nil {
		t.Errorf("disabled sender: %d, %v", n, err)
	}

	failing := &fakeSender{enabled: true, fail: true}
	if n, err := NewFollowUp(e, failing, time.Hour, time.Minute).RunOnce(ctx); n != 0 || err != nil {
		t.Errorf("failing sender: %d, %v", n, err)
	}
	lead, err := e.Leads.Find(ctx, func(l models.Lead) bool { return l.Address == "+15035550124" })
	if err != nil {
		t.Fatal(err)
	}
	if lead.FollowUpSentAt != nil {
		t.Error("failed send must not mark the follow-up as sent")
	}
}

func TestFollowUpServeStops(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})
	f := NewFollowUp(e, &fakeSender{}, time.Hour, 10*time.Millisecond)
	if f.String() == "" {
		t.Error("empty service name")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}
