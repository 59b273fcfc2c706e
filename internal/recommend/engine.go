// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
)

// PropertySource is the listing catalogue.
type PropertySource interface {
	Get(ctx context.Context, ref string) (models.Property, error)
	All(ctx context.Context) ([]models.Property, error)
}

// EventSource supplies property views for co-visitation.
type EventSource interface {
	Query(ctx context.Context, f analytics.Filter) ([]analytics.Event, error)
}

// Config tunes the blend and the training window.
type Config struct {
	ContentWeight float64
	CovisitWeight float64

	// Lambda is the MMR relevance weight in [0, 1].
	Lambda float64

	Window          time.Duration
	MaxEvents       int
	MaxSessionItems int
	Interval        time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		ContentWeight:   0.7,
		CovisitWeight:   0.3,
		Lambda:          0.7,
		Window:          90 * 24 * time.Hour,
		MaxEvents:       50000,
		MaxSessionItems: 50,
		Interval:        time.Hour,
	}
}

// Scored is one suggestion.
type Scored struct {
	Property models.Property `json:"property"`
	Score    float64         `json:"score"`
	Reasons  []string        `json:"reasons,omitempty"`
}

// Engine serves similar-listing suggestions.
type Engine struct {
	cfg      Config
	listings PropertySource
	events   EventSource
	now      func() time.Time

	mu        sync.RWMutex
	cv        *covisit
	trainedAt time.Time
}

// NewEngine creates an engine. events may be nil, in which case only
// content similarity is used.
func NewEngine(listings PropertySource, events EventSource, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.ContentWeight <= 0 && cfg.CovisitWeight <= 0 {
		cfg.ContentWeight, cfg.CovisitWeight = def.ContentWeight, def.CovisitWeight
	}
	if cfg.Lambda <= 0 || cfg.Lambda > 1 {
		cfg.Lambda = def.Lambda
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = def.MaxEvents
	}
	if cfg.MaxSessionItems <= 0 {
		cfg.MaxSessionItems = def.MaxSessionItems
	}
	return &Engine{cfg: cfg, listings: listings, events: events, now: time.Now}
}

// Train rebuilds the co-visitation model from recent property views.
func (e *Engine) Train(ctx context.Context) error {
	if e.events == nil {
		return nil
	}
	start := e.now()
	events, err := e.events.Query(ctx, analytics.Filter{
		Types: []analytics.EventType{analytics.EventPropertyView},
		Since: start.Add(-e.cfg.Window),
		Limit: e.cfg.MaxEvents,
	})
	if err != nil {
		return fmt.Errorf("load property views: %w", err)
	}
	cv := buildCovisit(events, e.cfg.MaxSessionItems)

	e.mu.Lock()
	e.cv = cv
	e.trainedAt = start
	e.mu.Unlock()

	logging.Debug().
		Int("events", len(events)).
		Int("listings", len(cv.counts)).
		Int("views", cv.views()).
		Dur("took", time.Since(start)).
		Msg("Similar listings model trained")
	return nil
}

// TrainedAt is the time of the last successful Train.
func (e *Engine) TrainedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trainedAt
}

// Similar returns up to k available listings like ref, excluding ref.
func (e *Engine) Similar(ctx context.Context, ref string, k int) ([]Scored, error) {
	target, err := e.listings.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	all, err := e.listings.All(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cv := e.cv
	e.mu.RUnlock()

	cands := make([]Scored, 0, len(all))
	for i := range all {
		p := &all[i]
		if p.ID == target.ID || !p.Available {
			continue
		}
		content := ContentSimilarity(&target, p)
		co := cv.score(target.ID, p.ID)
		why := reasons(&target, p)
		if co > 0 {
			why = append(why, "viewed together")
		}
		cands = append(cands, Scored{
			Property: *p,
			Score:    e.cfg.ContentWeight*content + e.cfg.CovisitWeight*co,
			Reasons:  why,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })

	return mmr(cands, k, e.cfg.Lambda, func(a, b int) float64 {
		return ContentSimilarity(&cands[a].Property, &cands[b].Property)
	}), nil
}

// Serve trains once at startup and then on every interval. A zero
// interval trains once and waits for shutdown.
func (e *Engine) Serve(ctx context.Context) error {
	if err := e.Train(ctx); err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Msg("Similar listings training failed")
	}
	if e.cfg.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.Train(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("Similar listings training failed")
			}
		}
	}
}

// String implements fmt.Stringer for the supervisor.
func (e *Engine) String() string { return "recommend-trainer" }
