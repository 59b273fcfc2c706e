// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package responder

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/tomtom215/rentline/internal/models"
)

// TemplateName is the Source recorded for template replies.
const TemplateName = "template"

const greetPrefix = `{{if .Greet}}Hi{{with .Name}} {{.}}{{end}}, thanks for contacting {{.Agency}}! {{end}}`

var templateText = map[Kind]string{
	KindGreeting:    `Hi{{with .Name}} {{.}}{{end}}, thanks for contacting {{.Agency}}! I can help you find your next rental. How many bedrooms are you looking for?`,
	KindAskBedrooms: greetPrefix + `How many bedrooms do you need?`,
	KindAskBudget:   greetPrefix + `{{with .Profile.Bedrooms}}{{bedrooms .}}, got it. {{end}}What is your monthly budget for rent?`,
	KindAskMoveIn:   greetPrefix + `{{with .Profile.Budget}}Up to {{money .}} a month, noted. {{end}}When are you hoping to move in?`,
	KindAskPets:     greetPrefix + `Thanks! Will any pets be living with you?`,
	KindOfferViewing: greetPrefix + `Good news, these match what you're after: ` +
		`{{range $i, $p := .Matches}}{{if $i}}; {{end}}{{$p.Title}} ({{bedrooms $p.Bedrooms}}, {{money $p.Rent}}/mo){{end}}. ` +
		`Would you like to see one? Reply with a day and time that suits you.`,
	KindNoMatches: greetPrefix + `Thanks! Nothing we have right now is an exact fit, but new places come up often. ` +
		`If you'd like to view something close, reply with a day and time, or reply NO and we'll be in touch.`,
	KindConfirmViewing: `Great, I've requested a viewing for {{.Viewing.Day}}{{with .Viewing.Time}} at {{.}}{{end}}. ` +
		`Someone from {{.Agency}} will confirm with you shortly.`,
	KindDeclineViewing: `No problem. We'll keep an eye out and let you know when something suitable comes up.`,
	KindClosing:        `Thanks{{with .Name}} {{.}}{{end}}! Your request is with our team. Reply RESTART to start a new search or AGENT to talk to a person.`,
	KindHelp:           `{{.Agency}} rentals: tell us what you're looking for and we'll match you with listings. Reply AGENT to talk to a person, STOP to unsubscribe. Msg & data rates may apply.`,
	KindOptOut:         `You have been unsubscribed from {{.Agency}} and will receive no further messages. Reply START to resubscribe.`,
	KindOptIn:          `You're subscribed to {{.Agency}} messages again. How many bedrooms are you looking for?`,
	KindHandoff:        `Got it. A member of the {{.Agency}} team will contact you shortly.`,
	KindFollowUp:       `Hi{{with .Name}} {{.}}{{end}}, just checking in on your rental search with {{.Agency}}. {{question .Missing}}`,
}

var templateFuncs = template.FuncMap{
	"money": func(v interface{}) string {
		switch n := v.(type) {
		case int:
			return formatMoney(n)
		case *int:
			if n != nil {
				return formatMoney(*n)
			}
		}
		return ""
	},
	"bedrooms": func(v interface{}) string {
		switch n := v.(type) {
		case int:
			return formatBedrooms(n)
		case *int:
			if n != nil {
				return formatBedrooms(*n)
			}
		}
		return ""
	},
	"question": Question,
}

// Template fills fixed reply templates. It never fails for a known kind.
type Template struct {
	templates map[Kind]*template.Template
}

// NewTemplate parses the built-in templates.
func NewTemplate() *Template {
	t := &Template{templates: make(map[Kind]*template.Template, len(templateText))}
	for kind, text := range templateText {
		t.templates[kind] = template.Must(template.New(string(kind)).Funcs(templateFuncs).Parse(text))
	}
	return t
}

// Name implements Generator.
func (t *Template) Name() string { return TemplateName }

// Generate implements Generator.
func (t *Template) Generate(_ context.Context, req Request) (string, error) {
	tmpl, ok := t.templates[req.Kind]
	if !ok {
		return "", fmt.Errorf("no template for reply kind %q", req.Kind)
	}
	if req.Kind == KindConfirmViewing && req.Viewing == nil {
		req.Viewing = &models.Viewing{Day: "your chosen day"}
	}
	if req.Agency == "" {
		req.Agency = "us"
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render %s: %w", req.Kind, err)
	}
	return b.String(), nil
}

// Question returns the question that asks for a profile field.
func Question(field string) string {
	switch field {
	case "bedrooms":
		return "How many bedrooms do you need?"
	case "budget":
		return "What is your monthly budget for rent?"
	case "move_in":
		return "When are you hoping to move in?"
	case "pets":
		return "Will any pets be living with you?"
	default:
		return "Would you like to schedule a viewing? Reply with a day and time."
	}
}

func formatMoney(n int) string {
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return "$" + string(out)
}

func formatBedrooms(n int) string {
	switch n {
	case 0:
		return "studio"
	case 1:
		return "1 bedroom"
	default:
		return fmt.Sprintf("%d bedrooms", n)
	}
}
