// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package responder

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/rentline/internal/models"
)

// Character limits per channel.
var channelLimits = map[models.Channel]int{
	models.ChannelSMS:      320,
	models.ChannelWhatsApp: 1000,
	models.ChannelVoice:    400,
	models.ChannelWeb:      1000,
}

// Limit returns the reply length cap for a channel.
func Limit(ch models.Channel) int {
	if n, ok := channelLimits[ch]; ok {
		return n
	}
	return 320
}

var goals = map[Kind]string{
	KindGreeting:       "Welcome them warmly and ask how many bedrooms they need.",
	KindAskBedrooms:    "Ask how many bedrooms they need.",
	KindAskBudget:      "Acknowledge what they told you and ask for their monthly rent budget.",
	KindAskMoveIn:      "Acknowledge what they told you and ask when they want to move in.",
	KindAskPets:        "Ask whether any pets will live with them.",
	KindOfferViewing:   "Briefly present the matching listings below and invite them to reply with a day and time for a viewing.",
	KindNoMatches:      "Say nothing matches exactly right now, offer a viewing of something close, and say they can reply NO.",
	KindConfirmViewing: "Confirm the viewing request for the requested slot and say the team will confirm it.",
	KindDeclineViewing: "Accept that they don't want a viewing and say you'll be in touch when something suitable comes up.",
	KindClosing:        "Thank them, say the team has their request, and mention they can reply RESTART or AGENT.",
	KindHandoff:        "Tell them a member of the team will contact them shortly.",
	KindFollowUp:       "Politely check in on their rental search and ask the open question below.",
}

// BuildPrompt returns the system and user prompts for an LLM generator.
func BuildPrompt(req Request) (system, user string) {
	agency := req.Agency
	if agency == "" {
		agency = "the agency"
	}

	var s strings.Builder
	fmt.Fprintf(&s, "You are a friendly leasing assistant for %s, a property rental agency. ", agency)
	fmt.Fprintf(&s, "You are replying over %s. ", channelDescription(req.Channel))
	fmt.Fprintf(&s, "Keep the reply under %d characters, plain text, no markdown, no emojis. ", Limit(req.Channel))
	s.WriteString("Never invent listings, prices or availability. Only write the reply text.")

	var u strings.Builder
	fmt.Fprintf(&u, "Goal: %s\n", goals[req.Kind])
	if req.Greet {
		u.WriteString("This is their first message, so greet them.\n")
	}
	if req.Name != "" {
		fmt.Fprintf(&u, "Their name: %s\n", req.Name)
	}
	if facts := profileFacts(req.Profile); facts != "" {
		fmt.Fprintf(&u, "Known so far: %s\n", facts)
	}
	if req.Missing != "" {
		fmt.Fprintf(&u, "Open question: %s\n", Question(req.Missing))
	}
	for i := range req.Matches {
		p := &req.Matches[i]
		fmt.Fprintf(&u, "Listing: %s, %s, %s, %s/mo\n", p.Title, p.Address.City, formatBedrooms(p.Bedrooms), formatMoney(p.Rent))
	}
	if req.Viewing != nil {
		fmt.Fprintf(&u, "Requested viewing: %s %s\n", req.Viewing.Day, req.Viewing.Time)
	}
	if req.LastMessage != "" {
		fmt.Fprintf(&u, "Their last message: %q\n", req.LastMessage)
	}
	return s.String(), u.String()
}

func channelDescription(ch models.Channel) string {
	switch ch {
	case models.ChannelVoice:
		return "a phone call; the text will be read aloud, so avoid symbols and lists"
	case models.ChannelWhatsApp:
		return "WhatsApp"
	case models.ChannelWeb:
		return "the website chat"
	default:
		return "SMS"
	}
}

func profileFacts(p models.LeadProfile) string {
	var parts []string
	if p.Bedrooms != nil {
		parts = append(parts, formatBedrooms(*p.Bedrooms))
	}
	if p.Budget != nil {
		parts = append(parts, "budget "+formatMoney(*p.Budget))
	}
	if p.MoveIn != "" {
		parts = append(parts, "move in "+p.MoveIn)
	}
	if p.Pets != nil {
		if *p.Pets {
			parts = append(parts, "has pets")
		} else {
			parts = append(parts, "no pets")
		}
	}
	if p.City != "" {
		parts = append(parts, "prefers "+p.City)
	}
	return strings.Join(parts, ", ")
}

// Clean trims a generated reply, strips wrapping quotes and caps it at the
// channel limit on a word boundary.
func Clean(text string, ch models.Channel) string {
	text = strings.TrimSpace(text)
	for {
		first, fn := utf8.DecodeRuneInString(text)
		last, ln := utf8.DecodeLastRuneInString(text)
		if !isQuote(first) || !isQuote(last) {
			break
		}
		// A lone quote is both first and last rune.
		if len(text) < fn+ln {
			text = ""
			break
		}
		text = strings.TrimSpace(text[fn : len(text)-ln])
	}

	limit := Limit(ch)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)[:limit]
	cut := len(runes)
	for i := len(runes) - 1; i > limit/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
	})
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '`', '“', '”', '‘', '’':
		return true
	}
	return false
}
