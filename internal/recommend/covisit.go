// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package recommend

import (
	"math"

	"github.com/tomtom215/rentline/internal/analytics"
)

// covisit counts listings viewed together in one session.
type covisit struct {
	pairs  map[string]map[string]int
	counts map[string]int
}

// buildCovisit groups property views by session. Repeat views within a
// session count once.
func buildCovisit(events []analytics.Event, maxSessionItems int) *covisit {
	sessions := make(map[string]map[string]struct{})
	for i := range events {
		e := &events[i]
		if e.Type != analytics.EventPropertyView || e.SessionID == "" || e.PropertyID == "" {
			continue
		}
		set := sessions[e.SessionID]
		if set == nil {
			set = make(map[string]struct{})
			sessions[e.SessionID] = set
		}
		set[e.PropertyID] = struct{}{}
	}

	cv := &covisit{pairs: make(map[string]map[string]int), counts: make(map[string]int)}
	for _, set := range sessions {
		// crawlers and very long sessions add noise
		if len(set) > maxSessionItems {
			continue
		}
		for a := range set {
			cv.counts[a]++
			for b := range set {
				if a == b {
					continue
				}
				row := cv.pairs[a]
				if row == nil {
					row = make(map[string]int)
					cv.pairs[a] = row
				}
				row[b]++
			}
		}
	}
	return cv
}

// score is the cosine-normalized co-view count in [0, 1].
func (cv *covisit) score(a, b string) float64 {
	if cv == nil {
		return 0
	}
	n := cv.pairs[a][b]
	if n == 0 {
		return 0
	}
	return float64(n) / math.Sqrt(float64(cv.counts[a])*float64(cv.counts[b]))
}

func (cv *covisit) views() int {
	if cv == nil {
		return 0
	}
	total := 0
	for _, n := range cv.counts {
		total += n
	}
	return total
}
