// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package messaging

import (
	"encoding/xml"
	"net/http"

	"github.com/tomtom215/rentline/internal/logging"
)

// TwiML response documents. Only the verbs Rentline uses are modeled.
type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Message *twimlText   `xml:"Message,omitempty"`
	Gather  *twimlGather `xml:"Gather,omitempty"`
	Say     *twimlSay    `xml:"Say,omitempty"`
	Hangup  *struct{}    `xml:"Hangup,omitempty"`
}

type twimlText struct {
	Body string `xml:",chardata"`
}

type twimlSay struct {
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type twimlGather struct {
	Input         string    `xml:"input,attr"`
	Action        string    `xml:"action,attr"`
	Method        string    `xml:"method,attr"`
	Language      string    `xml:"language,attr,omitempty"`
	SpeechTimeout string    `xml:"speechTimeout,attr"`
	Say           *twimlSay `xml:"Say,omitempty"`
}

func render(doc twimlResponse) []byte {
	out, err := xml.Marshal(doc)
	if err != nil {
		// Only fixed struct shapes are marshaled.
		logging.Error().Err(err).Msg("marshal TwiML")
		return []byte(xml.Header + "<Response></Response>")
	}
	return append([]byte(xml.Header), out...)
}

// MessageResponse replies to an SMS or WhatsApp webhook with text.
func MessageResponse(text string) []byte {
	if text == "" {
		return EmptyResponse()
	}
	return render(twimlResponse{Message: &twimlText{Body: text}})
}

// EmptyResponse acknowledges a webhook without replying.
func EmptyResponse() []byte {
	return render(twimlResponse{})
}

// GatherResponse speaks prompt and collects the caller's speech, posting the
// transcript to action.
func GatherResponse(prompt, action, lang string) []byte {
	return render(twimlResponse{Gather: &twimlGather{
		Input:         "speech",
		Action:        action,
		Method:        http.MethodPost,
		Language:      lang,
		SpeechTimeout: "auto",
		Say:           &twimlSay{Language: lang, Text: prompt},
	}})
}

// SayAndHangup speaks text and ends the call.
func SayAndHangup(text, lang string) []byte {
	return render(twimlResponse{Say: &twimlSay{Language: lang, Text: text}, Hangup: &struct{}{}})
}

// WriteTwiML writes a TwiML document with status 200.
func WriteTwiML(w http.ResponseWriter, doc []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		logging.Debug().Err(err).Msg("write TwiML")
	}
}
