// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import "github.com/tomtom215/rentline/internal/models"

// Score weights.
const (
	pointsBedrooms = 20
	pointsBudget   = 25
	pointsMoveIn   = 20
	pointsUrgent   = 10
	pointsPets     = 5
	pointsViewing  = 20
	maxScore       = 100

	hotThreshold  = 70
	warmThreshold = 40
)

// Score rates how qualified a lead is, 0 to 100.
func Score(l *models.Lead) int {
	s := 0
	p := l.Profile
	if p.Bedrooms != nil {
		s += pointsBedrooms
	}
	if p.Budget != nil {
		s += pointsBudget
	}
	if p.MoveIn != "" {
		s += pointsMoveIn
		if p.MoveInUrgent {
			s += pointsUrgent
		}
	}
	if p.Pets != nil {
		s += pointsPets
	}
	if l.Viewing != nil {
		s += pointsViewing
	}
	if s > maxScore {
		s = maxScore
	}
	return s
}

// TemperatureFor buckets a score.
func TemperatureFor(score int) models.Temperature {
	switch {
	case score >= hotThreshold:
		return models.TemperatureHot
	case score >= warmThreshold:
		return models.TemperatureWarm
	default:
		return models.TemperatureCold
	}
}

// Missing returns the next profile field to ask for, or "" when the lead
// has answered everything.
func Missing(p models.LeadProfile) string {
	switch {
	case p.Bedrooms == nil:
		return "bedrooms"
	case p.Budget == nil:
		return "budget"
	case p.MoveIn == "":
		return "move_in"
	case p.Pets == nil:
		return "pets"
	}
	return ""
}

// Qualified reports whether the fields needed to schedule are known.
func Qualified(p models.LeadProfile) bool {
	return p.Bedrooms != nil && p.Budget != nil && p.MoveIn != ""
}
