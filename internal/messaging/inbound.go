// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package messaging

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/rentline/internal/models"
)

const whatsappPrefix = "whatsapp:"

// Inbound is a parsed Twilio webhook.
type Inbound struct {
	Channel     models.Channel
	From        string
	To          string
	Body        string
	MessageSID  string
	CallSID     string
	ProfileName string
	// SpeechResult is the transcript from a voice <Gather>.
	SpeechResult string
}

// Text returns the message body, or the speech transcript on voice.
func (in Inbound) Text() string {
	if in.Body != "" {
		return in.Body
	}
	return in.SpeechResult
}

// ParseInbound reads the Twilio form fields for channel.
func ParseInbound(r *http.Request, channel models.Channel) (Inbound, error) {
	if err := r.ParseForm(); err != nil {
		return Inbound{}, fmt.Errorf("parse webhook form: %w", err)
	}
	f := r.PostForm

	in := Inbound{
		Channel:      channel,
		From:         NormalizePhone(f.Get("From")),
		To:           NormalizePhone(f.Get("To")),
		Body:         strings.TrimSpace(f.Get("Body")),
		MessageSID:   f.Get("MessageSid"),
		CallSID:      f.Get("CallSid"),
		ProfileName:  strings.TrimSpace(f.Get("ProfileName")),
		SpeechResult: strings.TrimSpace(f.Get("SpeechResult")),
	}
	if in.From == "" {
		return Inbound{}, fmt.Errorf("webhook missing From")
	}
	return in, nil
}

// NormalizePhone converts a Twilio address to E.164. The whatsapp: prefix is
// dropped and ten-digit numbers are assumed to be US numbers.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, whatsappPrefix)
	if s == "" {
		return ""
	}

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case d == "":
		// Client identifiers such as "client:anonymous" pass through.
		return s
	case !strings.HasPrefix(s, "+") && len(d) == 10:
		return "+1" + d
	default:
		return "+" + d
	}
}

// WhatsAppAddress adds the whatsapp: prefix Twilio expects.
func WhatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, whatsappPrefix) {
		return phone
	}
	return whatsappPrefix + phone
}
