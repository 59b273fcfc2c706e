// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/rentline/internal/cache"
	"github.com/tomtom215/rentline/internal/metrics"
)

// Summary window bounds in days.
const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
	topPropertyCount  = 5
)

// ApplicationStats reports application counts by status. The inquiry
// service implements it.
type ApplicationStats interface {
	ApplicationCountsByStatus(ctx context.Context) (map[string]int, error)
}

// Funnel counts distinct leads reaching each conversation milestone.
type Funnel struct {
	Started    int `json:"conversation_started"`
	Qualifying int `json:"reached_qualifying"`
	Scheduling int `json:"reached_scheduling"`
	Viewings   int `json:"viewing_requested"`
}

// PropertyViews is a property with its view count.
type PropertyViews struct {
	PropertyID string `json:"property_id"`
	Views      int    `json:"views"`
}

// Summary is the admin dashboard aggregate.
type Summary struct {
	WindowDays      int             `json:"window_days"`
	Since           time.Time       `json:"since"`
	Until           time.Time       `json:"until"`
	TotalEvents     int             `json:"total_events"`
	ByType          map[string]int  `json:"by_type"`
	ByChannel       map[string]int  `json:"by_channel"`
	Funnel          Funnel          `json:"funnel"`
	TopProperties   []PropertyViews `json:"top_properties"`
	ResponseSources map[string]int  `json:"response_sources"`
	Applications    map[string]int  `json:"applications"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// Service answers admin analytics queries.
type Service struct {
	store     Store
	recorder  *Recorder
	summaries *cache.Cache[*Summary]
	apps      ApplicationStats
	now       func() time.Time
}

// NewService creates the analytics service. apps may be nil.
func NewService(store Store, recorder *Recorder, summaries *cache.Cache[*Summary], apps ApplicationStats) *Service {
	return &Service{store: store, recorder: recorder, summaries: summaries, apps: apps, now: time.Now}
}

// Record forwards to the recorder.
func (s *Service) Record(ctx context.Context, e Event) {
	s.recorder.Record(ctx, e)
}

// Events returns a page of raw events and the total match count.
func (s *Service) Events(ctx context.Context, f Filter) ([]Event, int64, error) {
	events, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// Summary returns the aggregate for the last days days. refresh clears the
// cache first.
func (s *Service) Summary(ctx context.Context, days int, refresh bool) (*Summary, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	if days > MaxWindowDays {
		days = MaxWindowDays
	}
	if refresh {
		s.summaries.Clear()
	}

	key := cache.GenerateKey("summary", map[string]int{"days": days})
	if sum, ok := s.summaries.Get(key); ok {
		metrics.CacheHits.WithLabelValues("analytics_summary").Inc()
		return sum, nil
	}
	metrics.CacheMisses.WithLabelValues("analytics_summary").Inc()

	sum, err := s.compute(ctx, days)
	if err != nil {
		return nil, err
	}
	s.summaries.Set(key, sum)
	return sum, nil
}

func (s *Service) compute(ctx context.Context, days int) (*Summary, error) {
	until := s.now().UTC()
	since := until.AddDate(0, 0, -days)

	events, err := s.store.Query(ctx, Filter{Since: since, Until: until.Add(time.Nanosecond)})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	sum := Summarize(events)
	sum.WindowDays = days
	sum.Since = since
	sum.Until = until
	sum.GeneratedAt = until

	if s.apps != nil {
		counts, err := s.apps.ApplicationCountsByStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("count applications: %w", err)
		}
		sum.Applications = counts
	}
	return sum, nil
}

// Summarize aggregates events without touching the store.
func Summarize(events []Event) *Summary {
	sum := &Summary{
		TotalEvents:     len(events),
		ByType:          map[string]int{},
		ByChannel:       map[string]int{},
		TopProperties:   []PropertyViews{},
		ResponseSources: map[string]int{},
		Applications:    map[string]int{},
	}

	started := map[string]bool{}
	qualifying := map[string]bool{}
	scheduling := map[string]bool{}
	viewings := map[string]bool{}
	views := map[string]int{}

	for i := range events {
		e := &events[i]
		sum.ByType[string(e.Type)]++
		if e.Channel != "" {
			sum.ByChannel[e.Channel]++
		}

		switch e.Type {
		case EventConversationStarted:
			started[e.LeadID] = true
		case EventStateChanged:
			switch e.Attributes["to"] {
			case "qualifying":
				qualifying[e.LeadID] = true
			case "scheduling":
				scheduling[e.LeadID] = true
			}
		case EventViewingRequested:
			viewings[e.LeadID] = true
		case EventPropertyView:
			if e.PropertyID != "" {
				views[e.PropertyID]++
			}
		case EventMessageSent:
			if src := e.Attributes["source"]; src != "" {
				sum.ResponseSources[src]++
			}
		}
	}

	// Each stage implies the ones before it; a lead can skip qualifying
	// when its first message already answers every question.
	for id := range viewings {
		scheduling[id] = true
	}
	for id := range scheduling {
		qualifying[id] = true
	}

	sum.Funnel = Funnel{
		Started:    len(started),
		Qualifying: len(qualifying),
		Scheduling: len(scheduling),
		Viewings:   len(viewings),
	}

	for id, n := range views {
		sum.TopProperties = append(sum.TopProperties, PropertyViews{PropertyID: id, Views: n})
	}
	sort.Slice(sum.TopProperties, func(i, j int) bool {
		a, b := sum.TopProperties[i], sum.TopProperties[j]
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.PropertyID < b.PropertyID
	})
	if len(sum.TopProperties) > topPropertyCount {
		sum.TopProperties = sum.TopProperties[:topPropertyCount]
	}
	return sum
}
