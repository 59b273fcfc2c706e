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
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/notify"
	"github.com/tomtom215/rentline/internal/responder"
	"github.com/tomtom215/rentline/internal/store"
)

type fakeMatcher struct {
	props []models.Property
}

func (f *fakeMatcher) Match(_ context.Context, c listing.Criteria) ([]models.Property, error) {
	var out []models.Property
	for _, p := range f.props {
		if c.Budget != nil && p.Rent > *c.Budget {
			continue
		}
		if c.Bedrooms != nil && p.Bedrooms < *c.Bedrooms {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeMatcher) Cities(context.Context) ([]listing.CityCount, error) {
	return []listing.CityCount{{City: "Portland", Count: 2}, {City: "Salem", Count: 1}}, nil
}

type sink struct {
	mu            sync.Mutex
	events        []analytics.Event
	notifications []notify.Notification
	broadcasts    []string
}

func (s *sink) Record(_ context.Context, e analytics.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *sink) Send(_ context.Context, n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *sink) Broadcast(messageType string, _ interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, messageType)
}

func (s *sink) count(typ analytics.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *sink, *testClock) {
	t.Helper()
	dir := t.TempDir()
	leads, err := store.Open[models.Lead](dir, "leads")
	if err != nil {
		t.Fatal(err)
	}
	viewings, err := store.Open[models.ViewingRequest](dir, "viewings")
	if err != nil {
		t.Fatal(err)
	}
	s := &sink{}
	matcher := &fakeMatcher{props: []models.Property{
		{ID: "p1", Title: "Sunny Loft", Bedrooms: 2, Rent: 1700, Address: models.Address{City: "Portland"}},
		{ID: "p2", Title: "River House", Bedrooms: 3, Rent: 2600, Address: models.Address{City: "Portland"}},
	}}
	if cfg.Agency == "" {
		cfg.Agency = "Acme Rentals"
	}
	e := NewEngine(Deps{
		Leads:     leads,
		Viewings:  viewings,
		Listings:  matcher,
		Responder: responder.NewChain(time.Second),
		Events:    s,
		Notifier:  s,
		Feed:      s,
	}, cfg)
	clock := &testClock{t: time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC)}
	e.now = clock.now
	return e, s, clock
}

func send(t *testing.T, e *Engine, ch models.Channel, addr, body string) Outbound {
	t.Helper()
	out, err := e.Handle(context.Background(), Inbound{Channel: ch, Address: addr, Body: body})
	if err != nil {
		t.Fatalf("Handle(%q): %v", body, err)
	}
	return out
}

func TestFullQualificationFlow(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	const phone = "+15035550100"

	steps := []struct {
		body      string
		wantState models.LeadState
		wantReply string
	}{
		{"Hi there", models.StateQualifying, "How many bedrooms"},
		{"2 bedrooms", models.StateQualifying, "budget"},
		{"$1,800", models.StateQualifying, "move in"},
		{"next week", models.StateQualifying, "pets"},
		{"no pets", models.StateScheduling, "Sunny Loft"},
		{"Saturday at 10am works", models.StateCompleted, "Saturday at 10am"},
		{"thanks!", models.StateCompleted, "RESTART"},
	}

	var out Outbound
	for _, st := range steps {
		out = send(t, e, models.ChannelSMS, phone, st.body)
		if out.State != st.wantState {
			t.Fatalf("after %q: state = %s, want %s", st.body, out.State, st.wantState)
		}
		if !strings.Contains(out.Reply, st.wantReply) {
			t.Errorf("after %q: reply %q missing %q", st.body, out.Reply, st.wantReply)
		}
		if out.Source != responder.TemplateName {
			t.Errorf("source = %q", out.Source)
		}
	}

	lead := out.Lead
	if lead.Score != 100 || lead.Temperature != models.TemperatureHot {
		t.Errorf("score %d temperature %s", lead.Score, lead.Temperature)
	}
	if lead.Viewing == nil || lead.Viewing.Day != "Saturday" || lead.Viewing.Time != "10am" {
		t.Errorf("viewing = %+v", lead.Viewing)
	}
	if len(lead.Matches) != 1 || lead.Matches[0] != "p1" {
		t.Errorf("matches = %v", lead.Matches)
	}
	if len(lead.Messages) != 14 {
		t.Errorf("history length = %d, want 14", len(lead.Messages))
	}

	viewings, err := e.ListViewings(context.Background())
	if err != nil || len(viewings) != 1 || viewings[0].LeadID != lead.ID {
		t.Fatalf("viewings = %+v, %v", viewings, err)
	}

	if s.count(analytics.EventConversationStarted) != 1 ||
		s.count(analytics.EventLeadQualified) != 1 ||
		s.count(analytics.EventViewingRequested) != 1 ||
		s.count(analytics.EventMessageReceived) != 7 {
		t.Errorf("unexpected events: %+v", s.events)
	}
	if len(s.notifications) != 1 || s.notifications[0].Kind != notify.KindViewing {
		t.Errorf("notifications = %+v", s.notifications)
	}
}

func TestFirstMessageWithEverythingSkipsQualifying(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})

	out := send(t, e, models.ChannelWhatsApp, "+15035550101", "Hi, I'm Dana. Looking for a 2 bedroom under $2,000, moving asap")
	if out.State != models.StateScheduling {
		t.Fatalf("state = %s, want scheduling", out.State)
	}
	if !strings.Contains(out.Reply, "Hi Dana") || !strings.Contains(out.Reply, "Sunny Loft") {
		t.Errorf("reply = %q", out.Reply)
	}
	if out.Lead.Profile.MoveIn != "asap" || !out.Lead.Profile.MoveInUrgent {
		t.Errorf("profile = %+v", out.Lead.Profile)
	}
}

func TestNoMatchesAndDecline(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	const phone = "+15035550102"

	out := send(t, e, models.ChannelSMS, phone, "need a 4 bedroom for $900 a month this month")
	if out.State != models.StateScheduling || !strings.Contains(out.Reply, "NO") {
		t.Fatalf("state %s reply %q", out.State, out.Reply)
	}
	if len(out.Lead.Matches) != 0 {
		t.Errorf("matches = %v", out.Lead.Matches)
	}

	out = send(t, e, models.ChannelSMS, phone, "no thanks")
	if out.State != models.StateCompleted || out.Lead.Viewing != nil {
		t.Errorf("state %s viewing %+v", out.State, out.Lead.Viewing)
	}
	if !out.End {
		t.Error("completed conversation should end")
	}
	if s.count(analytics.EventViewingRequested) != 0 {
		t.Error("declining must not record a viewing")
	}
}

func TestOptOutAndOptIn(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	const phone = "+15035550103"

	send(t, e, models.ChannelSMS, phone, "2 bedrooms")
	out := send(t, e, models.ChannelSMS, phone, "STOP")
	if !out.Lead.OptedOut || out.State != models.StateCompleted || !strings.Contains(out.Reply, "unsubscribed") {
		t.Fatalf("opt-out: %+v", out)
	}

	for _, body := range []string{"hello?", "HELP", "3 bedrooms"} {
		out = send(t, e, models.ChannelSMS, phone, body)
		if out.Reply != "" {
			t.Errorf("opted-out lead got a reply to %q: %q", body, out.Reply)
		}
	}
	if out.Lead.Profile.Bedrooms == nil || *out.Lead.Profile.Bedrooms != 2 {
		t.Error("opted-out messages must not change the profile")
	}

	out = send(t, e, models.ChannelSMS, phone, "START")
	if out.Lead.OptedOut || out.State != models.StateGreeting || !strings.Contains(out.Reply, "subscribed") {
		t.Fatalf("opt-in: %+v", out)
	}
	if s.count(analytics.EventOptedOut) != 1 {
		t.Error("opt-out event not recorded")
	}
}

func TestRepeatedStopStaysSilent(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	const phone = "+15035550111"

	send(t, e, models.ChannelSMS, phone, "hi")
	if out := send(t, e, models.ChannelSMS, phone, "STOP"); out.Reply == "" {
		t.Fatal("first STOP should be confirmed")
	}
	for _, body := range []string{"STOP", "unsubscribe"} {
		out := send(t, e, models.ChannelSMS, phone, body)
		if out.Reply != "" || !out.Lead.OptedOut {
			t.Errorf("%q after opt-out: reply %q opted_out %v", body, out.Reply, out.Lead.OptedOut)
		}
	}
	if n := s.count(analytics.EventOptedOut); n != 1 {
		t.Errorf("opted_out events = %d, want 1", n)
	}
}

func TestSchedulingRefusalNamingADay(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	if out := send(t, e, models.ChannelSMS, "+15035550112", "2 bedrooms for $1,600 asap"); out.State != models.StateScheduling {
		t.Fatalf("state = %s, want scheduling", out.State)
	}
	out := send(t, e, models.ChannelSMS, "+15035550112", "No, not this weekend")
	if out.State != models.StateCompleted || out.Lead.Viewing != nil {
		t.Fatalf("state %s viewing %+v", out.State, out.Lead.Viewing)
	}
	if strings.Contains(out.Reply, "requested a viewing") {
		t.Errorf("reply = %q", out.Reply)
	}
	if viewings, _ := e.ListViewings(ctx); len(viewings) != 0 {
		t.Errorf("viewings = %+v", viewings)
	}
	if s.count(analytics.EventViewingRequested) != 0 || len(s.notifications) != 0 {
		t.Error("a refusal must not request a viewing")
	}

	send(t, e, models.ChannelSMS, "+15035550113", "2 bedrooms for $1,600 asap")
	out = send(t, e, models.ChannelSMS, "+15035550113", "No problem, Saturday works")
	if out.Lead.Viewing == nil || out.Lead.Viewing.Day != "Saturday" {
		t.Errorf("viewing = %+v", out.Lead.Viewing)
	}
}

func TestHandoffNotifiesOnce(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	const phone = "+15035550104"

	send(t, e, models.ChannelSMS, phone, "2 bedrooms")
	out := send(t, e, models.ChannelSMS, phone, "can I talk to an agent please")
	if !out.Lead.Handoff || out.State != models.StateQualifying {
		t.Fatalf("handoff %v state %s", out.Lead.Handoff, out.State)
	}
	if !strings.Contains(out.Reply, "contact you shortly") {
		t.Errorf("reply = %q", out.Reply)
	}
	send(t, e, models.ChannelSMS, phone, "agent!!")

	if len(s.notifications) != 1 || s.notifications[0].Kind != notify.KindHandoff {
		t.Errorf("notifications = %+v", s.notifications)
	}
	if s.count(analytics.EventHandoffRequested) != 1 {
		t.Error("handoff event should be recorded once")
	}
}

func TestRestartClearsProfile(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})
	const phone = "+15035550105"

	send(t, e, models.ChannelSMS, phone, "2 bedrooms for $1,500")
	out := send(t, e, models.ChannelSMS, phone, "actually let's start over")
	if out.State != models.StateGreeting || out.Lead.Profile.Bedrooms != nil || out.Lead.Profile.Budget != nil {
		t.Fatalf("restart: state %s profile %+v", out.State, out.Lead.Profile)
	}

	out = send(t, e, models.ChannelSMS, phone, "3")
	if out.State != models.StateQualifying || out.Lead.Profile.Bedrooms == nil || *out.Lead.Profile.Bedrooms != 3 {
		t.Errorf("bare answer after restart: state %s profile %+v", out.State, out.Lead.Profile)
	}
}

func TestBareAnswersToQuestions(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})
	const phone = "+15035550106"

	send(t, e, models.ChannelSMS, phone, "hello")
	send(t, e, models.ChannelSMS, phone, "2")
	send(t, e, models.ChannelSMS, phone, "1900")
	send(t, e, models.ChannelSMS, phone, "June")
	out := send(t, e, models.ChannelSMS, phone, "yes")

	p := out.Lead.Profile
	if p.Bedrooms == nil || *p.Bedrooms != 2 || p.Budget == nil || *p.Budget != 1900 || p.MoveIn != "June" || p.Pets == nil || !*p.Pets {
		t.Errorf("profile = %+v", p)
	}
	if out.State != models.StateScheduling {
		t.Errorf("state = %s", out.State)
	}
}

func TestWebChatIssuesSession(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})

	first := send(t, e, models.ChannelWeb, "", "hi")
	if first.Lead.Address == "" {
		t.Fatal("web chat should issue a session id")
	}
	second := send(t, e, models.ChannelWeb, first.Lead.Address, "2 bedrooms")
	if second.Lead.ID != first.Lead.ID {
		t.Error("session id should continue the same lead")
	}

	if _, err := e.Handle(context.Background(), Inbound{Channel: models.ChannelSMS, Body: "hi"}); !errors.Is(err, ErrMissingAddress) {
		t.Errorf("sms without address err = %v", err)
	}
	if _, err := e.Handle(context.Background(), Inbound{Channel: "fax", Address: "x"}); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("bad channel err = %v", err)
	}
}

func TestVoiceSharesSMSLead(t *testing.T) {
	t.Parallel()

	shared, _, _ := newTestEngine(t, Config{ShareVoiceWithSMS: true})
	sms := send(t, shared, models.ChannelSMS, "+15035550107", "2 bedrooms")
	voice := send(t, shared, models.ChannelVoice, "+15035550107", "my budget is 1500")
	if voice.Lead.ID != sms.Lead.ID || voice.Lead.Channel != models.ChannelSMS {
		t.Error("voice call should continue the SMS lead")
	}
	if len(voice.Reply) > responder.Limit(models.ChannelVoice) {
		t.Errorf("voice reply too long: %d", len(voice.Reply))
	}

	separate, _, _ := newTestEngine(t, Config{})
	a := send(t, separate, models.ChannelSMS, "+15035550107", "2 bedrooms")
	b := send(t, separate, models.ChannelVoice, "+15035550107", "")
	if a.Lead.ID == b.Lead.ID {
		t.Error("voice should start its own lead when sharing is off")
	}
}

func TestHistoryIsCapped(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{MaxHistory: 4})

	var out Outbound
	for _, body := range []string{"hello", "2 bedrooms", "$1,500"} {
		out = send(t, e, models.ChannelSMS, "+15035550108", body)
	}
	if len(out.Lead.Messages) != 4 {
		t.Fatalf("history = %d, want 4", len(out.Lead.Messages))
	}
	if out.Lead.Messages[0].Body != "2 bedrooms" {
		t.Errorf("oldest kept message = %q", out.Lead.Messages[0].Body)
	}
}

func TestLeadAdminOperations(t *testing.T) {
	t.Parallel()
	e, s, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	a := send(t, e, models.ChannelSMS, "+15035550109", "2 bedrooms for $1,600 asap").Lead
	send(t, e, models.ChannelWhatsApp, "+15035550110", "hello")

	scheduling, err := e.ListLeads(ctx, LeadFilter{State: models.StateScheduling})
	if err != nil || len(scheduling) != 1 || scheduling[0].ID != a.ID {
		t.Fatalf("ListLeads(scheduling) = %+v, %v", scheduling, err)
	}
	whatsapp, _ := e.ListLeads(ctx, LeadFilter{Channel: models.ChannelWhatsApp})
	if len(whatsapp) != 1 {
		t.Errorf("ListLeads(whatsapp) = %d", len(whatsapp))
	}

	reset := models.StateGreeting
	name := " Dana "
	updated, err := e.UpdateLead(ctx, a.ID, &models.LeadUpdateInput{State: &reset, Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.State != models.StateGreeting || updated.Profile.Bedrooms != nil || updated.Name != "Dana" || updated.Score != 0 {
		t.Errorf("updated = %+v", updated)
	}
	if s.count(analytics.EventStateChanged) == 0 {
		t.Error("admin state change should be recorded")
	}

	bad := models.LeadState("bogus")
	if _, err := e.UpdateLead(ctx, a.ID, &models.LeadUpdateInput{State: &bad}); err == nil {
		t.Error("invalid state should fail validation")
	}

	if err := e.DeleteLead(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.GetLead(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetLead after delete err = %v", err)
	}
}

func TestAdminEditsWaitForTurnLock(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()
	const phone = "+15035550114"

	lead := send(t, e, models.ChannelSMS, phone, "2 bedrooms").Lead
	unlock := e.locks.lock(leadKey(models.ChannelSMS, phone))

	handoff := true
	done := make(chan error, 1)
	go func() {
		_, err := e.UpdateLead(ctx, lead.ID, &models.LeadUpdateInput{Handoff: &handoff})
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("UpdateLead finished while a turn held the lead: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("UpdateLead did not finish after the turn released the lead")
	}

	out := send(t, e, models.ChannelSMS, phone, "$1,800")
	if !out.Lead.Handoff {
		t.Error("next turn overwrote the admin handoff")
	}

	if err := e.DeleteLead(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteLead(missing) err = %v", err)
	}
	if n := e.locks.size(); n != 0 {
		t.Errorf("%d lead locks left after all turns finished", n)
	}
}

func TestTurnLocksAreReleased(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Handle(context.Background(), Inbound{Channel: models.ChannelWeb, Body: "hello"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	leads, err := e.ListLeads(context.Background(), LeadFilter{Channel: models.ChannelWeb})
	if err != nil || len(leads) != 20 {
		t.Fatalf("web leads = %d, %v", len(leads), err)
	}
	if n := e.locks.size(); n != 0 {
		t.Errorf("%d lead locks left, want 0", n)
	}
}
