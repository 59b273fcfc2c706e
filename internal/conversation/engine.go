// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package conversation is the lead-qualification engine behind the SMS,
WhatsApp, voice and web chat channels.

Each lead moves through four states:

	greeting -> qualifying -> scheduling -> completed

Qualifying asks, in order, for bedrooms, budget, move-in date and pets.
Once bedrooms, budget and move-in are known the engine matches listings and
offers a viewing. Carrier keywords (STOP, START, HELP) and requests for a
person are handled before the state machine in every state.

Engine.Handle is the single entry point for inbound messages. It loads or
creates the lead, advances the machine, asks the responder chain for the
reply text and persists the lead with its capped message history.
*/
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/notify"
	"github.com/tomtom215/rentline/internal/responder"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/validation"
	"github.com/tomtom215/rentline/internal/websocket"
)

const maxBodyRunes = 2000

var (
	// ErrInvalidChannel is returned for unknown channels.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrMissingAddress is returned when a non-web message has no sender.
	ErrMissingAddress = errors.New("inbound message has no sender address")
)

// Matcher finds listings for a qualified lead.
type Matcher interface {
	Match(ctx context.Context, c listing.Criteria) ([]models.Property, error)
	Cities(ctx context.Context) ([]listing.CityCount, error)
}

// Responder writes reply text.
type Responder interface {
	Generate(ctx context.Context, req responder.Request) responder.Result
}

// EventRecorder records analytics events.
type EventRecorder interface {
	Record(ctx context.Context, e analytics.Event)
}

// Notifier alerts staff.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification)
}

// Broadcaster pushes updates to the admin live feed.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// Config tunes the engine.
type Config struct {
	MaxHistory     int
	MaxSuggestions int
	// ShareVoiceWithSMS makes a call continue the SMS conversation from
	// the same number.
	ShareVoiceWithSMS bool
	Agency            string
}

// Deps are the collaborators an Engine needs.
type Deps struct {
	Leads     *store.Collection[models.Lead]
	Viewings  *store.Collection[models.ViewingRequest]
	Listings  Matcher
	Responder Responder
	Events    EventRecorder
	Notifier  Notifier
	Feed      Broadcaster
}

// Inbound is one message from a lead.
type Inbound struct {
	Channel models.Channel
	// Address is the E.164 phone number, or the web chat session ID.
	// An empty web address starts a new session.
	Address string
	Body    string
	// Name is a display name supplied by the channel, such as a WhatsApp
	// profile name.
	Name string
}

// Outbound is the engine's answer to one Inbound.
type Outbound struct {
	// Reply is empty when the lead is opted out.
	Reply  string
	Source string
	State  models.LeadState
	Lead   models.Lead
	// End is set when the conversation is over, so voice calls can hang up.
	End bool
}

// Engine runs the qualification state machine.
type Engine struct {
	Deps
	cfg   Config
	now   func() time.Time
	locks keyedMutex
}

// NewEngine creates an Engine.
func NewEngine(deps Deps, cfg Config) *Engine {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 50
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = listing.DefaultMatchLimit
	}
	return &Engine{Deps: deps, cfg: cfg, now: time.Now}
}

// turn carries the state of one Handle call.
type turn struct {
	lead     *models.Lead
	channel  models.Channel
	body     string
	first    bool
	expected string
	events   []analytics.Event
}

func (t *turn) emit(typ analytics.EventType, attrs map[string]string) {
	t.events = append(t.events, analytics.Event{
		Type:       typ,
		Channel:    string(t.channel),
		LeadID:     t.lead.ID,
		Attributes: attrs,
	})
}

func (e *Engine) leadChannel(ch models.Channel) models.Channel {
	if ch == models.ChannelVoice && e.cfg.ShareVoiceWithSMS {
		return models.ChannelSMS
	}
	return ch
}

// Handle processes one inbound message and returns the reply.
func (e *Engine) Handle(ctx context.Context, in Inbound) (Outbound, error) {
	if !in.Channel.Valid() {
		return Outbound{}, fmt.Errorf("%q: %w", in.Channel, ErrInvalidChannel)
	}
	if in.Address == "" {
		if in.Channel != models.ChannelWeb {
			return Outbound{}, ErrMissingAddress
		}
		in.Address = uuid.New().String()
	}
	body := strings.TrimSpace(in.Body)
	if r := []rune(body); len(r) > maxBodyRunes {
		body = string(r[:maxBodyRunes])
	}

	ch := e.leadChannel(in.Channel)
	unlock := e.locks.lock(leadKey(ch, in.Address))
	defer unlock()

	lead, err := e.Leads.Find(ctx, func(l models.Lead) bool {
		return l.Channel == ch && l.Address == in.Address
	})
	isNew := false
	if errors.Is(err, store.ErrNotFound) {
		isNew = true
		lead = models.Lead{
			ID:          uuid.New().String(),
			Channel:     ch,
			Address:     in.Address,
			State:       models.StateGreeting,
			Temperature: models.TemperatureCold,
			Messages:    []models.Message{},
			CreatedAt:   e.now().UTC(),
		}
	} else if err != nil {
		return Outbound{}, fmt.Errorf("load lead: %w", err)
	}

	now := e.now().UTC()
	prevState := lead.State
	if body != "" {
		lead.Messages = append(lead.Messages, models.Message{Direction: models.Inbound, Body: body, At: now})
		metrics.ConversationMessages.WithLabelValues(string(in.Channel), string(models.Inbound)).Inc()
	}
	lead.LastInboundAt = now
	if lead.Name == "" && in.Name != "" {
		lead.Name = in.Name
	}

	t := &turn{lead: &lead, channel: in.Channel, body: body, first: isNew}
	req, silent := e.step(ctx, t)

	lead.Score = Score(&lead)
	lead.Temperature = TemperatureFor(lead.Score)

	out := Outbound{}
	if !silent {
		req.Channel = in.Channel
		req.State = lead.State
		req.Agency = e.cfg.Agency
		req.Name = lead.Name
		req.Profile = lead.Profile
		req.LastMessage = body
		res := e.Responder.Generate(ctx, req)
		out.Reply, out.Source = res.Text, res.Source
		lead.Messages = append(lead.Messages, models.Message{
			Direction: models.Outbound,
			Body:      res.Text,
			At:        now,
			Source:    res.Source,
		})
		metrics.ConversationMessages.WithLabelValues(string(in.Channel), string(models.Outbound)).Inc()
		t.emit(analytics.EventMessageSent, map[string]string{"source": res.Source, "kind": string(req.Kind)})
	}

	if n := len(lead.Messages); n > e.cfg.MaxHistory {
		lead.Messages = append([]models.Message(nil), lead.Messages[n-e.cfg.MaxHistory:]...)
	}
	lead.UpdatedAt = now

	if err := e.save(ctx, lead); err != nil {
		return Outbound{}, err
	}

	var events []analytics.Event
	if isNew {
		events = append(events, analytics.Event{Type: analytics.EventConversationStarted})
	}
	if body != "" {
		events = append(events, analytics.Event{Type: analytics.EventMessageReceived})
	}
	if lead.State != prevState {
		metrics.RecordTransition(string(prevState), string(lead.State))
		events = append(events, analytics.Event{
			Type:       analytics.EventStateChanged,
			Attributes: map[string]string{"from": string(prevState), "to": string(lead.State)},
		})
	}
	for _, ev := range append(events, t.events...) {
		ev.Channel = string(in.Channel)
		ev.LeadID = lead.ID
		e.Events.Record(ctx, ev)
	}

	e.Feed.Broadcast(websocket.MessageTypeLeadUpdated, lead)

	logging.Ctx(ctx).Debug().
		Str("lead_id", lead.ID).
		Str("channel", string(in.Channel)).
		Str("from_state", string(prevState)).
		Str("to_state", string(lead.State)).
		Int("score", lead.Score).
		Str("source", out.Source).
		Msg("Conversation turn handled")

	out.State = lead.State
	out.Lead = lead
	out.End = lead.OptedOut || lead.State == models.StateCompleted
	return out, nil
}

// save writes the lead under the caller's turn lock, inserting it on the
// first turn.
func (e *Engine) save(ctx context.Context, lead models.Lead) error {
	_, err := e.Leads.Upsert(ctx,
		func(l models.Lead) bool { return l.ID == lead.ID },
		func() models.Lead { return models.Lead{ID: lead.ID} },
		func(l *models.Lead) error {
			*l = lead
			return nil
		})
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}

// step applies global intents, then the state machine. It returns the
// reply request, or silent when no reply must be sent.
func (e *Engine) step(ctx context.Context, t *turn) (req responder.Request, silent bool) {
	l := t.lead
	intent := DetectIntent(t.body, l.OptedOut)
	if intent != IntentNone {
		metrics.ConversationIntents.WithLabelValues(string(intent)).Inc()
	}

	switch intent {
	case IntentOptOut:
		if l.OptedOut {
			return responder.Request{}, true
		}
		l.OptedOut = true
		l.State = models.StateCompleted
		t.emit(analytics.EventOptedOut, nil)
		return responder.Request{Kind: responder.KindOptOut}, false
	case IntentOptIn:
		l.OptedOut = false
		l.State = models.StateGreeting
		return responder.Request{Kind: responder.KindOptIn}, false
	}
	if l.OptedOut {
		return responder.Request{}, true
	}

	switch intent {
	case IntentHelp:
		return responder.Request{Kind: responder.KindHelp}, false
	case IntentRestart:
		l.Profile = models.LeadProfile{}
		l.Viewing = nil
		l.Matches = nil
		l.FollowUpSentAt = nil
		l.State = models.StateGreeting
		return responder.Request{Kind: responder.KindGreeting}, false
	case IntentHandoff:
		if !l.Handoff {
			l.Handoff = true
			t.emit(analytics.EventHandoffRequested, nil)
			e.Notifier.Send(ctx, notify.Notification{
				Kind:    notify.KindHandoff,
				Subject: "Lead asked to talk to a person",
				Text:    t.body,
				Fields:  leadFields(l),
			})
		}
		return responder.Request{Kind: responder.KindHandoff}, false
	}

	return e.advance(ctx, t), false
}

func (e *Engine) advance(ctx context.Context, t *turn) responder.Request {
	l := t.lead
	switch l.State {
	case models.StateGreeting:
		if !t.first {
			t.expected = Missing(l.Profile)
		}
		e.extract(ctx, t)
		if Qualified(l.Profile) {
			return e.enterScheduling(ctx, t)
		}
		l.State = models.StateQualifying
		missing := Missing(l.Profile)
		if t.first && missing == "bedrooms" {
			return responder.Request{Kind: responder.KindGreeting}
		}
		return responder.Request{Kind: askKind(missing), Greet: t.first, Missing: missing}

	case models.StateQualifying:
		t.expected = Missing(l.Profile)
		e.extract(ctx, t)
		missing := Missing(l.Profile)
		if Qualified(l.Profile) && (missing == "" || t.expected == "pets") {
			return e.enterScheduling(ctx, t)
		}
		return responder.Request{Kind: askKind(missing), Missing: missing}

	case models.StateScheduling:
		if IsNo(t.body) {
			l.State = models.StateCompleted
			return responder.Request{Kind: responder.KindDeclineViewing}
		}
		if day, at, ok := ExtractViewing(t.body); ok {
			return e.requestViewing(ctx, t, day, at)
		}
		if e.extract(ctx, t) {
			return e.enterScheduling(ctx, t)
		}
		return e.offer(ctx, l, false)

	default:
		return responder.Request{Kind: responder.KindClosing}
	}
}

func askKind(field string) responder.Kind {
	switch field {
	case "bedrooms":
		return responder.KindAskBedrooms
	case "budget":
		return responder.KindAskBudget
	case "move_in":
		return responder.KindAskMoveIn
	default:
		return responder.KindAskPets
	}
}

// extract updates the profile from the message and reports whether anything
// changed. A bare reply is read as the answer to the expected field.
func (e *Engine) extract(ctx context.Context, t *turn) bool {
	if t.body == "" {
		return false
	}
	l := t.lead
	p := &l.Profile
	changed := false

	setInt := func(dst **int, v int) {
		if *dst == nil || **dst != v {
			*dst = &v
			changed = true
		}
	}

	if n, ok := ExtractBedrooms(t.body); ok {
		setInt(&p.Bedrooms, n)
	} else if t.expected == "bedrooms" {
		if n, ok := ExtractBareCount(t.body); ok {
			setInt(&p.Bedrooms, n)
		}
	}

	if n, ok := ExtractBudget(t.body); ok {
		setInt(&p.Budget, n)
	} else if t.expected == "budget" {
		if n, ok := ExtractBareAmount(t.body); ok {
			setInt(&p.Budget, n)
		}
	}

	if mi, ok := ExtractMoveIn(t.body, e.now()); ok && (mi.Label != p.MoveIn || mi.Urgent != p.MoveInUrgent) {
		p.MoveIn, p.MoveInUrgent = mi.Label, mi.Urgent
		changed = true
	}

	pets, ok := ExtractPets(t.body)
	if !ok && t.expected == "pets" {
		switch {
		case IsYes(t.body):
			pets, ok = true, true
		case IsNo(t.body):
			pets, ok = false, true
		}
	}
	if ok && (p.Pets == nil || *p.Pets != pets) {
		p.Pets = &pets
		changed = true
	}

	if city, ok := ExtractCity(t.body, e.cityNames(ctx)); ok && !strings.EqualFold(city, p.City) {
		p.City = city
		changed = true
	}

	if l.Name == "" {
		if name, ok := ExtractName(t.body); ok {
			l.Name = name
		}
	}
	return changed
}

func (e *Engine) cityNames(ctx context.Context) []string {
	cities, err := e.Listings.Cities(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Listing cities unavailable for extraction")
		return nil
	}
	names := make([]string, len(cities))
	for i := range cities {
		names[i] = cities[i].City
	}
	return names
}

func (e *Engine) enterScheduling(ctx context.Context, t *turn) responder.Request {
	l := t.lead
	wasScheduling := l.State == models.StateScheduling
	l.State = models.StateScheduling
	req := e.offer(ctx, l, true)
	req.Greet = t.first
	if !wasScheduling {
		t.emit(analytics.EventLeadQualified, map[string]string{
			"matches": strconv.Itoa(len(l.Matches)),
		})
	}
	return req
}

// offer builds the viewing offer. With refresh the listings are matched
// again; otherwise the stored matches are reused.
func (e *Engine) offer(ctx context.Context, l *models.Lead, refresh bool) responder.Request {
	var matches []models.Property
	if refresh || len(l.Matches) > 0 {
		crit := listing.CriteriaFromProfile(l.Profile)
		crit.Limit = e.cfg.MaxSuggestions
		found, err := e.Listings.Match(ctx, crit)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("lead_id", l.ID).Msg("Listing match failed")
		}
		matches = found
	}
	if refresh {
		l.Matches = make([]string, 0, len(matches))
		for i := range matches {
			l.Matches = append(l.Matches, matches[i].ID)
		}
	}
	if len(matches) == 0 {
		return responder.Request{Kind: responder.KindNoMatches}
	}
	return responder.Request{Kind: responder.KindOfferViewing, Matches: matches}
}

func (e *Engine) requestViewing(ctx context.Context, t *turn, day, at string) responder.Request {
	l := t.lead
	l.Viewing = &models.Viewing{Day: day, Time: at, Raw: t.body}
	l.State = models.StateCompleted

	vr := models.ViewingRequest{
		ID:          uuid.New().String(),
		LeadID:      l.ID,
		Channel:     l.Channel,
		Name:        l.Name,
		Address:     l.Address,
		PropertyIDs: append([]string(nil), l.Matches...),
		Day:         day,
		Time:        at,
		Raw:         t.body,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.Viewings.Insert(ctx, vr); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", l.ID).Msg("Failed to store viewing request")
	}

	t.emit(analytics.EventViewingRequested, map[string]string{"day": day})
	e.Feed.Broadcast(websocket.MessageTypeViewingRequested, vr)

	fields := leadFields(l)
	fields["Day"] = day
	if at != "" {
		fields["Time"] = at
	}
	e.Notifier.Send(ctx, notify.Notification{
		Kind:    notify.KindViewing,
		Subject: "Viewing requested for " + day,
		Text:    t.body,
		Fields:  fields,
	})

	return responder.Request{Kind: responder.KindConfirmViewing, Viewing: l.Viewing}
}

func leadFields(l *models.Lead) map[string]string {
	f := map[string]string{
		"Lead":    l.ID,
		"Channel": string(l.Channel),
		"Contact": l.Address,
		"Score":   strconv.Itoa(l.Score),
	}
	if l.Name != "" {
		f["Name"] = l.Name
	}
	if l.Profile.Bedrooms != nil {
		f["Bedrooms"] = strconv.Itoa(*l.Profile.Bedrooms)
	}
	if l.Profile.Budget != nil {
		f["Budget"] = strconv.Itoa(*l.Profile.Budget)
	}
	if l.Profile.MoveIn != "" {
		f["Move in"] = l.Profile.MoveIn
	}
	return f
}

// LeadFilter narrows ListLeads.
type LeadFilter struct {
	State       models.LeadState
	Temperature models.Temperature
	Channel     models.Channel
	Handoff     *bool
}

// ListLeads returns leads, most recently active first.
func (e *Engine) ListLeads(ctx context.Context, f LeadFilter) ([]models.Lead, error) {
	all, err := e.Leads.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Lead, 0, len(all))
	for i := range all {
		l := &all[i]
		if f.State != "" && l.State != f.State {
			continue
		}
		if f.Temperature != "" && l.Temperature != f.Temperature {
			continue
		}
		if f.Channel != "" && l.Channel != f.Channel {
			continue
		}
		if f.Handoff != nil && l.Handoff != *f.Handoff {
			continue
		}
		out = append(out, *l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// GetLead returns one lead.
func (e *Engine) GetLead(ctx context.Context, id string) (models.Lead, error) {
	return e.Leads.Get(ctx, id)
}

// UpdateLead applies an admin edit. Resetting to greeting clears what the
// engine has learned.
func (e *Engine) UpdateLead(ctx context.Context, id string, in *models.LeadUpdateInput) (models.Lead, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Lead{}, verr
	}

	unlock, err := e.lockLead(ctx, id)
	if err != nil {
		return models.Lead{}, err
	}
	defer unlock()

	var from models.LeadState
	lead, err := e.Leads.Update(ctx, id, func(l *models.Lead) error {
		from = l.State
		if in.Name != nil {
			l.Name = strings.TrimSpace(*in.Name)
		}
		if in.Handoff != nil {
			l.Handoff = *in.Handoff
		}
		if in.State != nil {
			l.State = *in.State
			if *in.State == models.StateGreeting {
				l.Profile = models.LeadProfile{}
				l.Viewing = nil
				l.Matches = nil
				l.FollowUpSentAt = nil
			}
			l.Score = Score(l)
			l.Temperature = TemperatureFor(l.Score)
		}
		l.UpdatedAt = e.now().UTC()
		return nil
	})
	if err != nil {
		return models.Lead{}, err
	}

	if lead.State != from {
		metrics.RecordTransition(string(from), string(lead.State))
		e.Events.Record(ctx, analytics.Event{
			Type:       analytics.EventStateChanged,
			Channel:    string(lead.Channel),
			LeadID:     lead.ID,
			Attributes: map[string]string{"from": string(from), "to": string(lead.State), "by": "admin"},
		})
	}
	e.Feed.Broadcast(websocket.MessageTypeLeadUpdated, lead)
	return lead, nil
}

// DeleteLead removes a lead and its history.
func (e *Engine) DeleteLead(ctx context.Context, id string) error {
	unlock, err := e.lockLead(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = e.Leads.Delete(ctx, id)
	return err
}

// ListViewings returns viewing requests newest first.
func (e *Engine) ListViewings(ctx context.Context) ([]models.ViewingRequest, error) {
	all, err := e.Viewings.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func leadKey(ch models.Channel, address string) string {
	return string(ch) + ":" + address
}

// keyedMutex serializes turns for the same lead. An entry lives only while
// someone holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	ent, ok := k.locks[key]
	if !ok {
		ent = &keyedEntry{}
		k.locks[key] = ent
	}
	ent.refs++
	k.mu.Unlock()

	ent.mu.Lock()
	return func() {
		ent.mu.Unlock()
		k.mu.Lock()
		ent.refs--
		if ent.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// lockLead takes the turn lock for an existing lead.
func (e *Engine) lockLead(ctx context.Context, id string) (func(), error) {
	l, err := e.Leads.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.locks.lock(leadKey(l.Channel, l.Address)), nil
}
