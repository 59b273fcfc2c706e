// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import (
	"context"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/messaging"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/responder"
	"github.com/tomtom215/rentline/internal/websocket"
)

// Sender delivers outbound text messages.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, channel models.Channel, to, body string) (*messaging.SendResult, error)
}

// FollowUp nudges SMS and WhatsApp leads that went quiet mid-qualification.
// It implements suture.Service.
type FollowUp struct {
	engine   *Engine
	sender   Sender
	after    time.Duration
	interval time.Duration
}

// NewFollowUp creates the follow-up service.
func NewFollowUp(engine *Engine, sender Sender, after, interval time.Duration) *FollowUp {
	if after <= 0 {
		after = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &FollowUp{engine: engine, sender: sender, after: after, interval: interval}
}

// Serve runs RunOnce on every tick until ctx is cancelled.
func (f *FollowUp) Serve(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	logging.Info().Dur("after", f.after).Dur("interval", f.interval).Msg("Follow-up service started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := f.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Follow-up pass failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (f *FollowUp) String() string { return "conversation-follow-up" }

func (f *FollowUp) due(l *models.Lead, now time.Time) bool {
	if l.Channel != models.ChannelSMS && l.Channel != models.ChannelWhatsApp {
		return false
	}
	if l.State != models.StateQualifying && l.State != models.StateScheduling {
		return false
	}
	return !l.OptedOut && !l.Handoff && l.FollowUpSentAt == nil && now.Sub(l.LastInboundAt) >= f.after
}

// RunOnce sends every due follow-up and returns how many were sent.
func (f *FollowUp) RunOnce(ctx context.Context) (int, error) {
	if !f.sender.Enabled() {
		return 0, nil
	}
	e := f.engine
	leads, err := e.Leads.All(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range leads {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !f.due(&leads[i], e.now()) {
			continue
		}
		if f.send(ctx, leads[i].ID, leads[i].Channel, leads[i].Address) {
			sent++
		}
	}
	if sent > 0 {
		logging.Info().Int("sent", sent).Msg("Follow-ups sent")
	}
	return sent, nil
}

func (f *FollowUp) send(ctx context.Context, id string, ch models.Channel, address string) bool {
	e := f.engine
	unlock := e.locks.lock(leadKey(ch, address))
	defer unlock()

	// Re-read under the lead lock; the lead may have replied since.
	lead, err := e.Leads.Get(ctx, id)
	if err != nil || !f.due(&lead, e.now()) {
		return false
	}

	missing := ""
	if lead.State == models.StateQualifying {
		missing = Missing(lead.Profile)
	}
	res := e.Responder.Generate(ctx, responder.Request{
		Kind:    responder.KindFollowUp,
		Channel: lead.Channel,
		State:   lead.State,
		Agency:  e.cfg.Agency,
		Name:    lead.Name,
		Profile: lead.Profile,
		Missing: missing,
	})

	if _, err := f.sender.Send(ctx, lead.Channel, lead.Address, res.Text); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("lead_id", lead.ID).Msg("Follow-up send failed")
		return false
	}

	now := e.now().UTC()
	updated, err := e.Leads.Update(ctx, lead.ID, func(l *models.Lead) error {
		l.FollowUpSentAt = &now
		l.Messages = append(l.Messages, models.Message{
			Direction: models.Outbound,
			Body:      res.Text,
			At:        now,
			Source:    res.Source,
		})
		if n := len(l.Messages); n > e.cfg.MaxHistory {
			l.Messages = append([]models.Message(nil), l.Messages[n-e.cfg.MaxHistory:]...)
		}
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", lead.ID).Msg("Failed to record follow-up")
		return true
	}

	e.Events.Record(ctx, analytics.Event{
		Type:       analytics.EventFollowUpSent,
		Channel:    string(lead.Channel),
		LeadID:     lead.ID,
		Attributes: map[string]string{"source": res.Source},
	})
	e.Feed.Broadcast(websocket.MessageTypeLeadUpdated, updated)
	return true
}
