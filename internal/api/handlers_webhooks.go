// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/messaging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/models"
)

// voiceGatherPath receives the transcript of each spoken answer.
const voiceGatherPath = "/webhooks/voice/gather"

// fallbackReply is sent when the engine fails, so the lead still hears back.
const fallbackReply = "Sorry, something went wrong on our side. Please try again in a few minutes."

// SMSWebhook handles an inbound SMS.
func (h *Handler) SMSWebhook(w http.ResponseWriter, r *http.Request) {
	h.messageWebhook(w, r, models.ChannelSMS)
}

// WhatsAppWebhook handles an inbound WhatsApp message.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	h.messageWebhook(w, r, models.ChannelWhatsApp)
}

func (h *Handler) messageWebhook(w http.ResponseWriter, r *http.Request, ch models.Channel) {
	in, ok := h.parseWebhook(w, r, ch)
	if !ok {
		return
	}

	out, err := h.Engine.Handle(r.Context(), conversation.Inbound{
		Channel: ch,
		Address: in.From,
		Body:    in.Text(),
		Name:    in.ProfileName,
	})
	if err != nil {
		h.webhookFailed(r, ch, err)
		messaging.WriteTwiML(w, messaging.MessageResponse(fallbackReply))
		return
	}
	metrics.WebhookRequests.WithLabelValues(string(ch), "ok").Inc()

	if out.Reply == "" {
		messaging.WriteTwiML(w, messaging.EmptyResponse())
		return
	}
	messaging.WriteTwiML(w, messaging.MessageResponse(out.Reply))
}

// VoiceWebhook answers an incoming call. The engine sees an empty message
// and replies with its greeting or, for a known caller, the next question.
func (h *Handler) VoiceWebhook(w http.ResponseWriter, r *http.Request) {
	h.voiceTurn(w, r)
}

// VoiceGatherWebhook receives one speech transcript from <Gather>.
func (h *Handler) VoiceGatherWebhook(w http.ResponseWriter, r *http.Request) {
	h.voiceTurn(w, r)
}

func (h *Handler) voiceTurn(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseWebhook(w, r, models.ChannelVoice)
	if !ok {
		return
	}
	lang := h.Config.Twilio.VoiceLanguage

	out, err := h.Engine.Handle(r.Context(), conversation.Inbound{
		Channel: models.ChannelVoice,
		Address: in.From,
		Body:    in.Text(),
	})
	if err != nil {
		h.webhookFailed(r, models.ChannelVoice, err)
		messaging.WriteTwiML(w, messaging.SayAndHangup(fallbackReply, lang))
		return
	}
	metrics.WebhookRequests.WithLabelValues(string(models.ChannelVoice), "ok").Inc()

	switch {
	case out.Reply == "":
		messaging.WriteTwiML(w, messaging.EmptyResponse())
	case out.End:
		messaging.WriteTwiML(w, messaging.SayAndHangup(out.Reply, lang))
	default:
		messaging.WriteTwiML(w, messaging.GatherResponse(out.Reply, voiceGatherPath, lang))
	}
}

// StatusWebhook records Twilio delivery callbacks for outbound messages.
func (h *Handler) StatusWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		metrics.WebhookRequests.WithLabelValues("status", "bad_request").Inc()
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f := r.PostForm
	status := f.Get("MessageStatus")
	ch := models.ChannelSMS
	if strings.HasPrefix(f.Get("To"), "whatsapp:") {
		ch = models.ChannelWhatsApp
	}
	metrics.WebhookRequests.WithLabelValues("status", "ok").Inc()

	switch status {
	case "delivered", "read":
		metrics.OutboundMessages.WithLabelValues(string(ch), "delivered").Inc()
	case "failed", "undelivered":
		metrics.OutboundMessages.WithLabelValues(string(ch), status).Inc()
		logging.Ctx(r.Context()).Warn().
			Str("message_sid", f.Get("MessageSid")).
			Str("status", status).
			Str("error_code", f.Get("ErrorCode")).
			Str("to", logging.MaskPhone(messaging.NormalizePhone(f.Get("To")))).
			Msg("Outbound message not delivered")
	default:
		logging.Ctx(r.Context()).Debug().
			Str("message_sid", f.Get("MessageSid")).
			Str("status", status).
			Msg("Message status callback")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseWebhook(w http.ResponseWriter, r *http.Request, ch models.Channel) (messaging.Inbound, bool) {
	in, err := messaging.ParseInbound(r, ch)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues(string(ch), "bad_request").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Str("channel", string(ch)).Msg("Malformed webhook")
		http.Error(w, "bad request", http.StatusBadRequest)
		return messaging.Inbound{}, false
	}
	return in, true
}

func (h *Handler) webhookFailed(r *http.Request, ch models.Channel, err error) {
	metrics.WebhookRequests.WithLabelValues(string(ch), "error").Inc()
	logging.Ctx(r.Context()).Error().Err(err).Str("channel", string(ch)).Msg("Conversation turn failed")
}
