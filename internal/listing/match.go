// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package listing

import (
	"context"
	"sort"
	"strings"

	"github.com/tomtom215/rentline/internal/models"
)

// DefaultMatchLimit is how many listings are offered to a qualified lead.
const DefaultMatchLimit = 3

// Criteria is what a lead told the conversation engine.
type Criteria struct {
	Bedrooms *int
	Budget   *int
	Pets     *bool
	City     string
	Limit    int
}

// CriteriaFromProfile builds match criteria from a lead profile.
func CriteriaFromProfile(p models.LeadProfile) Criteria {
	return Criteria{Bedrooms: p.Bedrooms, Budget: p.Budget, Pets: p.Pets, City: p.City}
}

// Match returns the cheapest available listings that fit c. Listings in
// the preferred city rank ahead of the rest.
func (s *Service) Match(ctx context.Context, c Criteria) ([]models.Property, error) {
	all, err := s.props.All(ctx)
	if err != nil {
		return nil, err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	out := make([]models.Property, 0, limit)
	for i := range all {
		p := &all[i]
		if !p.Available {
			continue
		}
		if c.Budget != nil && p.Rent > *c.Budget {
			continue
		}
		if c.Bedrooms != nil && p.Bedrooms < *c.Bedrooms {
			continue
		}
		if c.Pets != nil && *c.Pets && !p.PetsAllowed {
			continue
		}
		out = append(out, *p)
	}

	inCity := func(p *models.Property) bool {
		return c.City != "" && strings.EqualFold(p.Address.City, c.City)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := inCity(&out[i]), inCity(&out[j])
		if ci != cj {
			return ci
		}
		return out[i].Rent < out[j].Rent
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
