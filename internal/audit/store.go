// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package audit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MemoryStore keeps the most recent events in memory. When full, the
// oldest tenth is dropped.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, min(maxLen, 1024)),
		maxLen: maxLen,
	}
}

// Save appends an event.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := max(s.maxLen/10, 1)
		s.events = slices.Delete(s.events, 0, drop)
	}
	s.events = append(s.events, *event)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var (
		page  []Event
		total int
	)
	for i := len(s.events) - 1; i >= 0; i-- {
		if !matches(&s.events[i], &filter, search) {
			continue
		}
		total++
		if total <= filter.Offset {
			continue
		}
		if filter.Limit > 0 && len(page) >= filter.Limit {
			continue
		}
		page = append(page, s.events[i])
	}
	return page, total, nil
}

func matches(e *Event, f *Filter, search string) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.Actor != "" && !strings.EqualFold(e.Actor.Name, f.Actor) {
		return false
	}
	if f.TargetID != "" && (e.Target == nil || e.Target.ID != f.TargetID) {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
		return false
	}
	return true
}

// Delete removes events older than the cutoff.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.events)
	s.events = slices.DeleteFunc(s.events, func(e Event) bool {
		return e.Timestamp.Before(olderThan)
	})
	return int64(before - len(s.events)), nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Exporter renders events for download.
type Exporter interface {
	Export(events []Event) ([]byte, error)
	ContentType() string
}

// ExporterFor returns the exporter for "json" or "cef".
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONExporter{}, nil
	case "cef":
		return NewCEFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// JSONExporter writes events as an indented JSON array.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// ContentType implements Exporter.
func (JSONExporter) ContentType() string { return "application/json" }

// CEFExporter writes ArcSight Common Event Format lines.
type CEFExporter struct {
	Vendor  string
	Product string
	Version string
}

// NewCEFExporter returns an exporter with Rentline's device fields.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{Vendor: "Rentline", Product: "Rentline", Version: "1.0"}
}

// ContentType implements Exporter.
func (e *CEFExporter) ContentType() string { return "text/plain; charset=utf-8" }

// Export implements Exporter.
func (e *CEFExporter) Export(events []Event) ([]byte, error) {
	var b strings.Builder
	for i := range events {
		ev := &events[i]
		fmt.Fprintf(&b, "CEF:0|%s|%s|%s|%s|%s|%d|%s\n",
			cefHeader(e.Vendor), cefHeader(e.Product), cefHeader(e.Version),
			cefHeader(string(ev.Type)), cefHeader(ev.Description),
			cefSeverity(ev.Severity), e.extension(ev))
	}
	return []byte(b.String()), nil
}

func cefSeverity(s Severity) int {
	switch s {
	case SeverityWarning:
		return 6
	case SeverityCritical:
		return 10
	default:
		return 3
	}
}

func (e *CEFExporter) extension(ev *Event) string {
	parts := []string{
		"rt=" + fmt.Sprint(ev.Timestamp.UnixMilli()),
		"suser=" + cefValue(ev.Actor.Name),
		"src=" + cefValue(ev.Source.IPAddress),
		"outcome=" + cefValue(string(ev.Outcome)),
	}
	if ev.Target != nil {
		parts = append(parts, "cs1Label=targetType", "cs1="+cefValue(ev.Target.Type),
			"cs2Label=targetId", "cs2="+cefValue(ev.Target.ID))
	}
	if ev.RequestID != "" {
		parts = append(parts, "externalId="+cefValue(ev.RequestID))
	}
	return strings.Join(parts, " ")
}

var (
	cefHeaderEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`, "\n", " ", "\r", " ")
	cefValueEscaper  = strings.NewReplacer(`\`, `\\`, "=", `\=`, "\n", `\n`, "\r", `\r`)
)

func cefHeader(s string) string { return cefHeaderEscaper.Replace(s) }
func cefValue(s string) string  { return cefValueEscaper.Replace(s) }
