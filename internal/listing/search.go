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
	"github.com/tomtom215/rentline/internal/validation"
)

// Paging limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sort orders accepted by Search. Anything else falls back to SortNewest.
const (
	SortNewest       = "newest"
	SortRentAsc      = "rent_asc"
	SortRentDesc     = "rent_desc"
	SortBedroomsDesc = "bedrooms_desc"
)

// Filter narrows a search. Zero values mean "no constraint".
type Filter struct {
	Query         string
	City          string
	Type          models.PropertyType
	MinRent       int
	MaxRent       int
	MinBedrooms   int
	MinBathrooms  float64
	Pets          *bool
	Amenities     []string
	AvailableOnly bool
	Sort          string
	Limit         int
	Offset        int
}

// Page is one window of search results.
type Page struct {
	Items  []models.Property `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// CityCount is a city with the number of available listings in it.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// Normalize clamps paging values and rejects inverted rent ranges.
func (f *Filter) Normalize() error {
	if f.MinRent < 0 || f.MaxRent < 0 {
		return validation.NewError("min_rent", "gte", "rent bounds must not be negative")
	}
	if f.MaxRent > 0 && f.MinRent > f.MaxRent {
		return validation.NewError("min_rent", "ltefield", "min_rent must not exceed max_rent")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.Sort {
	case SortNewest, SortRentAsc, SortRentDesc, SortBedroomsDesc:
	default:
		f.Sort = SortNewest
	}
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	f.City = strings.TrimSpace(f.City)
	return nil
}

// Search returns the page of listings matching f and the total match count.
func (s *Service) Search(ctx context.Context, f Filter) (Page, error) {
	if err := f.Normalize(); err != nil {
		return Page{}, err
	}
	all, err := s.props.All(ctx)
	if err != nil {
		return Page{}, err
	}

	matched := make([]models.Property, 0, len(all))
	for i := range all {
		if f.matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	sortProperties(matched, f.Sort)

	page := Page{Items: []models.Property{}, Total: len(matched), Limit: f.Limit, Offset: f.Offset}
	if f.Offset < len(matched) {
		end := f.Offset + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Items = matched[f.Offset:end]
	}
	return page, nil
}

func (f *Filter) matches(p *models.Property) bool {
	if f.AvailableOnly && !p.Available {
		return false
	}
	if f.City != "" && !strings.EqualFold(p.Address.City, f.City) {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.MinRent > 0 && p.Rent < f.MinRent {
		return false
	}
	if f.MaxRent > 0 && p.Rent > f.MaxRent {
		return false
	}
	if p.Bedrooms < f.MinBedrooms || p.Bathrooms < f.MinBathrooms {
		return false
	}
	if f.Pets != nil && p.PetsAllowed != *f.Pets {
		return false
	}
	for _, a := range f.Amenities {
		if !p.HasAmenity(a) {
			return false
		}
	}
	return f.Query == "" || containsQuery(p, f.Query)
}

func containsQuery(p *models.Property, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Address.City), q) {
		return true
	}
	for _, a := range p.Amenities {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

func sortProperties(ps []models.Property, order string) {
	newest := func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) }
	var less func(i, j int) bool
	switch order {
	case SortRentAsc:
		less = func(i, j int) bool {
			if ps[i].Rent != ps[j].Rent {
				return ps[i].Rent < ps[j].Rent
			}
			return newest(i, j)
		}
	case SortRentDesc:
		less = func(i, j int) bool {
			if ps[i].Rent != ps[j].Rent {
				return ps[i].Rent > ps[j].Rent
			}
			return newest(i, j)
		}
	case SortBedroomsDesc:
		less = func(i, j int) bool {
			if ps[i].Bedrooms != ps[j].Bedrooms {
				return ps[i].Bedrooms > ps[j].Bedrooms
			}
			return newest(i, j)
		}
	default:
		less = newest
	}
	sort.SliceStable(ps, less)
}

// Featured returns up to n available featured listings, newest first.
func (s *Service) Featured(ctx context.Context, n int) ([]models.Property, error) {
	all, err := s.props.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Property, 0, n)
	for i := range all {
		if all[i].Available && all[i].Featured {
			out = append(out, all[i])
		}
	}
	sortProperties(out, SortNewest)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Cities lists the distinct cities of available listings, sorted by name.
// Cities differing only in case are merged under the first spelling seen.
func (s *Service) Cities(ctx context.Context) ([]CityCount, error) {
	all, err := s.props.All(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int)
	out := []CityCount{}
	for i := range all {
		city := strings.TrimSpace(all[i].Address.City)
		if !all[i].Available || city == "" {
			continue
		}
		key := strings.ToLower(city)
		if j, ok := idx[key]; ok {
			out[j].Count++
			continue
		}
		idx[key] = len(out)
		out = append(out, CityCount{City: city, Count: 1})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].City) < strings.ToLower(out[j].City)
	})
	return out, nil
}
