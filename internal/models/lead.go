// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package models

import "time"

// Channel is the medium a lead talks to us through.
type Channel string

// Channels.
const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelVoice    Channel = "voice"
	ChannelWeb      Channel = "web"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelWhatsApp, ChannelVoice, ChannelWeb:
		return true
	}
	return false
}

// LeadState is one of the four qualification states.
type LeadState string

// Lead states.
const (
	StateGreeting   LeadState = "greeting"
	StateQualifying LeadState = "qualifying"
	StateScheduling LeadState = "scheduling"
	StateCompleted  LeadState = "completed"
)

// Temperature buckets a lead score.
type Temperature string

// Temperatures.
const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// LeadProfile holds what the engine has learned about the prospect.
// Nil pointers mean "not known yet".
type LeadProfile struct {
	Bedrooms     *int   `json:"bedrooms,omitempty"`
	Budget       *int   `json:"budget,omitempty"`
	MoveIn       string `json:"move_in,omitempty"`
	MoveInUrgent bool   `json:"move_in_urgent,omitempty"`
	Pets         *bool  `json:"pets,omitempty"`
	City         string `json:"city,omitempty"`
}

// Viewing is the slot a lead asked for.
type Viewing struct {
	Day  string `json:"day"`
	Time string `json:"time,omitempty"`
	Raw  string `json:"raw"`
}

// MessageDirection marks who sent a message.
type MessageDirection string

// Directions.
const (
	Inbound  MessageDirection = "inbound"
	Outbound MessageDirection = "outbound"
)

// Message is one entry in a lead's conversation history.
type Message struct {
	Direction MessageDirection `json:"direction"`
	Body      string           `json:"body"`
	At        time.Time        `json:"at"`

	// Source is set on outbound messages: the generator that produced it.
	Source string `json:"source,omitempty"`
}

// Lead is a prospect in the qualification flow.
type Lead struct {
	ID          string      `json:"id"`
	Channel     Channel     `json:"channel"`
	Address     string      `json:"address"`
	Name        string      `json:"name,omitempty"`
	State       LeadState   `json:"state"`
	Profile     LeadProfile `json:"profile"`
	Score       int         `json:"score"`
	Temperature Temperature `json:"temperature"`
	Viewing     *Viewing    `json:"viewing,omitempty"`
	Matches     []string    `json:"matches,omitempty"`
	OptedOut    bool        `json:"opted_out"`
	Handoff     bool        `json:"handoff"`
	Messages    []Message   `json:"messages"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastInboundAt  time.Time  `json:"last_inbound_at"`
	FollowUpSentAt *time.Time `json:"follow_up_sent_at,omitempty"`
}

// GetID implements store.Record.
func (l Lead) GetID() string { return l.ID }

// LeadUpdateInput is the admin edit request for a lead.
type LeadUpdateInput struct {
	Name    *string    `json:"name" validate:"omitempty,max=120"`
	State   *LeadState `json:"state" validate:"omitempty,oneof=greeting qualifying scheduling completed"`
	Handoff *bool      `json:"handoff"`
}

// ViewingRequest is stored whenever a lead picks a viewing slot.
type ViewingRequest struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	Channel     Channel   `json:"channel"`
	Name        string    `json:"name,omitempty"`
	Address     string    `json:"address"`
	PropertyIDs []string  `json:"property_ids,omitempty"`
	Day         string    `json:"day"`
	Time        string    `json:"time,omitempty"`
	Raw         string    `json:"raw"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetID implements store.Record.
func (v ViewingRequest) GetID() string { return v.ID }
