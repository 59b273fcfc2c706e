// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package responder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/rentline/internal/breaker"
	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
)

var errEmptyReply = errors.New("generator returned an empty reply")

type guarded struct {
	gen     Generator
	breaker *breaker.Breaker[string]
}

// Chain tries LLM generators in order and falls back to templates.
type Chain struct {
	llms     []guarded
	template *Template
	timeout  time.Duration
}

// NewChain builds a chain over gens. The template generator is always
// appended and must not be listed.
func NewChain(timeout time.Duration, gens ...Generator) *Chain {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	c := &Chain{template: NewTemplate(), timeout: timeout}
	for _, g := range gens {
		c.llms = append(c.llms, guarded{
			gen:     g,
			breaker: breaker.New[string]("responder-"+g.Name(), breaker.Settings{MinRequests: 3, Timeout: time.Minute}),
		})
	}
	return c
}

// FromConfig builds the chain described by cfg.AI. Providers without an
// API key are skipped with a warning.
func FromConfig(ctx context.Context, cfg config.AIConfig) *Chain {
	var gens []Generator
	for _, name := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "openai":
			g, err := NewOpenAI(OpenAIConfig{
				APIKey:      cfg.OpenAIAPIKey,
				BaseURL:     cfg.OpenAIBaseURL,
				Model:       cfg.OpenAIModel,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			}, nil)
			if err != nil {
				logging.Warn().Err(err).Msg("Skipping OpenAI reply generator")
				continue
			}
			gens = append(gens, g)
		case "gemini":
			g, err := NewGemini(ctx, GeminiConfig{
				APIKey:      cfg.GeminiAPIKey,
				Model:       cfg.GeminiModel,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			})
			if err != nil {
				logging.Warn().Err(err).Msg("Skipping Gemini reply generator")
				continue
			}
			gens = append(gens, g)
		default:
			logging.Warn().Str("provider", name).Msg("Unknown AI provider ignored")
		}
	}

	names := make([]string, 0, len(gens)+1)
	for _, g := range gens {
		names = append(names, g.Name())
	}
	logging.Info().Strs("generators", append(names, TemplateName)).Msg("Reply generator chain ready")
	return NewChain(cfg.Timeout, gens...)
}

// Generate returns the first usable reply. It always returns text.
func (c *Chain) Generate(ctx context.Context, req Request) Result {
	attempts := 0
	if !req.Kind.Compliance() {
		for _, g := range c.llms {
			attempts++
			text, err := c.try(ctx, g, req)
			if err == nil {
				return Result{Text: text, Source: g.gen.Name(), Attempts: attempts}
			}
			logging.Ctx(ctx).Debug().Err(err).
				Str("generator", g.gen.Name()).
				Str("kind", string(req.Kind)).
				Msg("Reply generator fell through")
		}
	}

	attempts++
	start := time.Now()
	text, err := c.template.Generate(ctx, req)
	if err != nil {
		metrics.RecordGeneration(TemplateName, "error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Str("kind", string(req.Kind)).Msg("Template reply failed")
		text = Question(req.Missing)
	} else {
		metrics.RecordGeneration(TemplateName, "success", time.Since(start))
	}
	return Result{Text: Clean(text, req.Channel), Source: TemplateName, Attempts: attempts}
}

func (c *Chain) try(ctx context.Context, g guarded, req Request) (string, error) {
	start := time.Now()
	text, err := g.breaker.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		out, err := g.gen.Generate(cctx, req)
		if err != nil {
			return "", err
		}
		out = Clean(out, req.Channel)
		if out == "" {
			return "", errEmptyReply
		}
		return out, nil
	})

	result := "success"
	switch {
	case err == nil:
	case breaker.IsOpen(err):
		result = "rejected"
	case errors.Is(err, errEmptyReply):
		result = "empty"
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.RecordGeneration(g.gen.Name(), result, time.Since(start))
	return text, err
}
