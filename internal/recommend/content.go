// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package recommend

import (
	"math"
	"strings"

	"github.com/tomtom215/rentline/internal/models"
)

// Content weights sum to 1.
const (
	cityWeight     = 0.30
	rentWeight     = 0.25
	bedroomWeight  = 0.20
	typeWeight     = 0.15
	amenityWeight  = 0.10
	maxBedroomDiff = 3
)

// ContentSimilarity scores two listings in [0, 1].
func ContentSimilarity(a, b *models.Property) float64 {
	s := 0.0
	if a.Address.City != "" && strings.EqualFold(a.Address.City, b.Address.City) {
		s += cityWeight
	}
	if a.Type == b.Type {
		s += typeWeight
	}

	diff := a.Bedrooms - b.Bedrooms
	if diff < 0 {
		diff = -diff
	}
	s += bedroomWeight * (1 - float64(min(diff, maxBedroomDiff))/maxBedroomDiff)

	if hi := max(a.Rent, b.Rent); hi > 0 {
		gap := math.Abs(float64(a.Rent-b.Rent)) / float64(hi)
		s += rentWeight * (1 - math.Min(gap, 1))
	}

	s += amenityWeight * jaccard(a.Amenities, b.Amenities)
	return s
}

// jaccard compares two case-insensitive string sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[strings.ToLower(v)] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[strings.ToLower(v)] = struct{}{}
	}
	inter := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// reasons explains a content match in renter terms.
func reasons(target, p *models.Property) []string {
	var out []string
	if target.Address.City != "" && strings.EqualFold(target.Address.City, p.Address.City) {
		out = append(out, "same city")
	}
	if target.Bedrooms == p.Bedrooms {
		out = append(out, "same bedrooms")
	}
	if hi := max(target.Rent, p.Rent); hi > 0 && math.Abs(float64(target.Rent-p.Rent))/float64(hi) <= 0.15 {
		out = append(out, "similar rent")
	}
	return out
}
