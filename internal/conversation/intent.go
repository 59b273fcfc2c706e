// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import (
	"regexp"
	"strings"
)

// Intent is a global command that overrides the state machine.
type Intent string

// Intents, in priority order.
const (
	IntentNone    Intent = ""
	IntentOptOut  Intent = "opt_out"
	IntentOptIn   Intent = "opt_in"
	IntentHelp    Intent = "help"
	IntentRestart Intent = "restart"
	IntentHandoff Intent = "handoff"
)

var (
	optOutWords = map[string]bool{"STOP": true, "STOPALL": true, "UNSUBSCRIBE": true, "CANCEL": true, "END": true, "QUIT": true}
	optInWords  = map[string]bool{"START": true, "UNSTOP": true, "YES": true}
	helpWords   = map[string]bool{"HELP": true, "INFO": true}

	restartRe = regexp.MustCompile(`(?i)\b(start over|restart|reset|start again|new search)\b`)
	handoffRe = regexp.MustCompile(`(?i)\b(agent|human|representative|real person|call me|speak to someone|talk to someone|speak to a person|talk to a person)\b`)
)

// keyword returns the message as a single upper-case word, or "" when the
// message is more than one word.
func keyword(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimRight(t, ".!?")
	if t == "" || strings.ContainsAny(t, " \t\n") {
		return ""
	}
	return strings.ToUpper(t)
}

// DetectIntent classifies a message. Carrier keywords only count when they
// are the whole message.
func DetectIntent(text string, optedOut bool) Intent {
	kw := keyword(text)
	switch {
	case optOutWords[kw]:
		return IntentOptOut
	case optedOut && optInWords[kw]:
		return IntentOptIn
	case optedOut:
		return IntentNone
	case helpWords[kw]:
		return IntentHelp
	case restartRe.MatchString(text):
		return IntentRestart
	case handoffRe.MatchString(text):
		return IntentHandoff
	}
	return IntentNone
}
