// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package messaging is the Twilio plumbing for the SMS, WhatsApp and voice
// channels: webhook signature checks, inbound parsing, TwiML responses and
// the outbound REST client.
package messaging

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Twilio signs webhooks with HMAC-SHA1
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
)

// SignatureHeader carries the request signature.
const SignatureHeader = "X-Twilio-Signature"

// ErrInvalidSignature is returned when a webhook signature does not match.
var ErrInvalidSignature = errors.New("invalid twilio signature")

// ComputeSignature returns the base64 HMAC-SHA1 of the full URL followed by
// every POST parameter as key+value, keys sorted.
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature matches the request.
func ValidateSignature(authToken, fullURL string, params url.Values, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(authToken, fullURL, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RequestURL rebuilds the URL Twilio called. publicURL wins when set, since
// proxies rewrite the scheme and host.
func RequestURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

// RequireSignature rejects webhook requests whose signature does not match.
// The form is parsed here so handlers can read r.PostForm afterwards.
func RequireSignature(authToken, publicURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				metrics.WebhookRequests.WithLabelValues(channelFromPath(r.URL.Path), "bad_request").Inc()
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			fullURL := RequestURL(r, publicURL)
			if !ValidateSignature(authToken, fullURL, r.PostForm, r.Header.Get(SignatureHeader)) {
				metrics.WebhookRequests.WithLabelValues(channelFromPath(r.URL.Path), "invalid_signature").Inc()
				logging.Ctx(r.Context()).Warn().Str("url", fullURL).Msg("Rejected webhook with invalid signature")
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func channelFromPath(p string) string {
	switch {
	case strings.Contains(p, "whatsapp"):
		return "whatsapp"
	case strings.Contains(p, "voice"):
		return "voice"
	case strings.Contains(p, "status"):
		return "status"
	default:
		return "sms"
	}
}
