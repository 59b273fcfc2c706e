// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rentline/internal/breaker"
	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/models"
)

const defaultAPIBaseURL = "https://api.twilio.com"

var (
	// ErrDisabled is returned when Twilio is not configured.
	ErrDisabled = errors.New("twilio messaging is disabled")

	// ErrUnsupportedChannel is returned for channels without outbound text.
	ErrUnsupportedChannel = errors.New("channel does not support outbound messages")
)

// APIError is an error response from the Twilio REST API.
type APIError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// SendResult is the created message.
type SendResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Client sends SMS and WhatsApp messages through the Twilio Messages API.
type Client struct {
	cfg     config.TwilioConfig
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker[*SendResult]
}

// NewClient creates a Client. httpClient may be nil.
func NewClient(cfg config.TwilioConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	if base == "" {
		base = defaultAPIBaseURL
	}
	perSecond := cfg.SendRatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		breaker: breaker.New[*SendResult]("twilio-api", breaker.Settings{}),
	}
}

// Enabled reports whether outbound sends are possible.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.AccountSID != "" && c.cfg.AuthToken != ""
}

// Send delivers body to the E.164 address to on channel. It waits for the
// rate limiter and fails fast while the breaker is open.
func (c *Client) Send(ctx context.Context, channel models.Channel, to, body string) (*SendResult, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	from := c.cfg.FromNumber
	switch channel {
	case models.ChannelSMS:
	case models.ChannelWhatsApp:
		from = c.cfg.WhatsAppFrom
		if from == "" {
			from = c.cfg.FromNumber
		}
		from = WhatsAppAddress(from)
		to = WhatsAppAddress(to)
	default:
		return nil, fmt.Errorf("%s: %w", channel, ErrUnsupportedChannel)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.breaker.Execute(func() (*SendResult, error) {
		return c.post(ctx, url.Values{"To": {to}, "From": {from}, "Body": {body}})
	})
	if err != nil {
		metrics.OutboundMessages.WithLabelValues(string(channel), "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("channel", string(channel)).
			Str("to", logging.MaskPhone(to)).
			Msg("Outbound message failed")
		return nil, err
	}

	metrics.OutboundMessages.WithLabelValues(string(channel), "sent").Inc()
	logging.Ctx(ctx).Debug().
		Str("channel", string(channel)).
		Str("to", logging.MaskPhone(to)).
		Str("sid", res.SID).
		Msg("Outbound message sent")
	return res, nil
}

func (c *Client) post(ctx context.Context, form url.Values) (*SendResult, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read twilio response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}

	var out SendResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode twilio response: %w", err)
	}
	return &out, nil
}
