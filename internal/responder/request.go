// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package responder writes the replies the qualification engine sends to leads.

A Chain tries the configured LLM generators (OpenAI-compatible chat
completions, Google Gemini) in order. Each runs under its own timeout and
circuit breaker; failures and empty output fall through to the next one and
finally to the Template generator, which always answers. Compliance replies
(STOP, START, HELP) never go to an LLM.

Every reply is cleaned and capped to the channel's length limit before it
is returned.
*/
package responder

import (
	"context"

	"github.com/tomtom215/rentline/internal/models"
)

// Kind is what the reply needs to accomplish.
type Kind string

// Reply kinds.
const (
	KindGreeting       Kind = "greeting"
	KindAskBedrooms    Kind = "ask_bedrooms"
	KindAskBudget      Kind = "ask_budget"
	KindAskMoveIn      Kind = "ask_move_in"
	KindAskPets        Kind = "ask_pets"
	KindOfferViewing   Kind = "offer_viewing"
	KindNoMatches      Kind = "no_matches"
	KindConfirmViewing Kind = "confirm_viewing"
	KindDeclineViewing Kind = "decline_viewing"
	KindClosing        Kind = "closing"
	KindHelp           Kind = "help"
	KindOptOut         Kind = "opt_out"
	KindOptIn          Kind = "opt_in"
	KindHandoff        Kind = "handoff"
	KindFollowUp       Kind = "follow_up"
)

// Compliance reports whether the reply text is regulated and must come from
// a fixed template.
func (k Kind) Compliance() bool {
	return k == KindOptOut || k == KindOptIn || k == KindHelp
}

// Request is everything a generator may use to write one reply.
type Request struct {
	Kind    Kind
	Channel models.Channel
	State   models.LeadState
	Agency  string
	Name    string
	Profile models.LeadProfile

	// Greet prefixes the reply with a welcome on the lead's first message.
	Greet bool

	LastMessage string
	Matches     []models.Property
	Viewing     *models.Viewing

	// Missing is the next profile field to ask for: bedrooms, budget,
	// move_in or pets. Used by follow-ups.
	Missing string
}

// Result is a generated reply.
type Result struct {
	Text     string
	Source   string
	Attempts int
}

// Generator writes a reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
