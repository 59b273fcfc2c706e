// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
)

const maxHotLeads = 10

// SummarySource is the analytics service.
type SummarySource interface {
	Summary(ctx context.Context, days int, refresh bool) (*analytics.Summary, error)
}

// LeadSource is the conversation engine.
type LeadSource interface {
	ListLeads(ctx context.Context, f conversation.LeadFilter) ([]models.Lead, error)
}

// LeadLine is one lead in the digest. Phone numbers are masked.
type LeadLine struct {
	ID          string             `json:"id"`
	Who         string             `json:"who"`
	Channel     models.Channel     `json:"channel"`
	State       models.LeadState   `json:"state"`
	Score       int                `json:"score"`
	Temperature models.Temperature `json:"temperature"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Report is the content of one digest.
type Report struct {
	Agency     string             `json:"agency"`
	Since      time.Time          `json:"since"`
	Until      time.Time          `json:"until"`
	Summary    *analytics.Summary `json:"summary"`
	NewLeads   int                `json:"new_leads"`
	ByChannel  map[string]int     `json:"new_leads_by_channel"`
	Handoffs   []LeadLine         `json:"pending_handoffs"`
	HotLeads   []LeadLine         `json:"hot_leads"`
	TotalLeads int                `json:"total_leads"`
}

// Builder assembles reports.
type Builder struct {
	agency     string
	windowDays int
	summaries  SummarySource
	leads      LeadSource
	now        func() time.Time
}

// NewBuilder creates a report builder covering the last windowDays days.
func NewBuilder(agency string, windowDays int, summaries SummarySource, leads LeadSource) *Builder {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Builder{agency: agency, windowDays: windowDays, summaries: summaries, leads: leads, now: time.Now}
}

// Build collects the report for the window ending now.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	until := b.now().UTC()
	since := until.AddDate(0, 0, -b.windowDays)

	sum, err := b.summaries.Summary(ctx, b.windowDays, false)
	if err != nil {
		return nil, fmt.Errorf("analytics summary: %w", err)
	}
	leads, err := b.leads.ListLeads(ctx, conversation.LeadFilter{})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	r := &Report{
		Agency:     b.agency,
		Since:      since,
		Until:      until,
		Summary:    sum,
		ByChannel:  make(map[string]int),
		Handoffs:   []LeadLine{},
		HotLeads:   []LeadLine{},
		TotalLeads: len(leads),
	}
	for i := range leads {
		l := &leads[i]
		if !l.CreatedAt.Before(since) {
			r.NewLeads++
			r.ByChannel[string(l.Channel)]++
		}
		switch {
		case l.Handoff:
			r.Handoffs = append(r.Handoffs, line(l))
		case l.Temperature == models.TemperatureHot && !l.OptedOut && !l.UpdatedAt.Before(since):
			r.HotLeads = append(r.HotLeads, line(l))
		}
	}
	sort.SliceStable(r.HotLeads, func(i, j int) bool { return r.HotLeads[i].Score > r.HotLeads[j].Score })
	if len(r.HotLeads) > maxHotLeads {
		r.HotLeads = r.HotLeads[:maxHotLeads]
	}
	return r, nil
}

func line(l *models.Lead) LeadLine {
	who := l.Name
	if who == "" {
		if l.Channel == models.ChannelWeb {
			who = "web visitor"
		} else {
			who = logging.MaskPhone(l.Address)
		}
	}
	return LeadLine{
		ID:          l.ID,
		Who:         who,
		Channel:     l.Channel,
		State:       l.State,
		Score:       l.Score,
		Temperature: l.Temperature,
		UpdatedAt:   l.UpdatedAt,
	}
}

const reportText = `{{.Agency}} lead digest, {{date .Since}} to {{date .Until}}

New leads: {{.NewLeads}}{{range $ch, $n := .ByChannel}}
  {{$ch}}: {{$n}}{{end}}
Leads on file: {{.TotalLeads}}
{{with .Summary}}
Funnel
  conversations started: {{.Funnel.Started}}
  reached qualifying:    {{.Funnel.Qualifying}}
  reached scheduling:    {{.Funnel.Scheduling}}
  viewings requested:    {{.Funnel.Viewings}}
{{if .Applications}}
Applications{{range $s, $n := .Applications}}
  {{$s}}: {{$n}}{{end}}
{{end}}{{end}}
Waiting for a person ({{len .Handoffs}}){{range .Handoffs}}
  - {{.Who}} via {{.Channel}}, {{.State}}, last active {{date .UpdatedAt}}{{else}}
  none{{end}}

Hot leads ({{len .HotLeads}}){{range .HotLeads}}
  - {{.Who}} via {{.Channel}}, score {{.Score}}, {{.State}}{{else}}
  none{{end}}
`

var reportTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}).Parse(reportText))

// Subject is the email subject for r.
func (r *Report) Subject() string {
	return fmt.Sprintf("%s lead digest: %d new leads, %d awaiting handoff", r.Agency, r.NewLeads, len(r.Handoffs))
}

// Text renders r as plain text.
func (r *Report) Text() (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, r); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}
