// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package listing

import (
	"context"
	"fmt"

	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
)

// sampleProperties are demo listings for development and screenshots.
var sampleProperties = []models.PropertyInput{
	{
		Title:       "Sunny Two Bedroom Loft",
		Description: "Top floor loft with south windows, in-unit laundry and a short walk to the streetcar.",
		Type:        models.PropertyApartment,
		Address:     models.AddressInput{Street: "1420 NW Lovejoy St", City: "Portland", State: "OR", Zip: "97209"},
		Rent:        1850, Deposit: 1850, Bedrooms: 2, Bathrooms: 1, SquareFeet: 980,
		Amenities:   []string{"in-unit laundry", "dishwasher", "bike storage"},
		PetsAllowed: true, Available: true, Featured: true,
	},
	{
		Title:       "Craftsman House with Yard",
		Description: "Three bedroom craftsman with a fenced yard, basement storage and off-street parking.",
		Type:        models.PropertyHouse,
		Address:     models.AddressInput{Street: "3311 SE Taylor St", City: "Portland", State: "OR", Zip: "97214"},
		Rent:        2950, Deposit: 3000, Bedrooms: 3, Bathrooms: 2, SquareFeet: 1650,
		Amenities:   []string{"parking", "yard", "washer/dryer"},
		PetsAllowed: true, Available: true, Featured: true,
	},
	{
		Title:       "Downtown Studio",
		Description: "Compact studio with a kitchenette, gym access and a rooftop deck.",
		Type:        models.PropertyStudio,
		Address:     models.AddressInput{Street: "500 Court St NE", City: "Salem", State: "OR", Zip: "97301"},
		Rent:        1095, Deposit: 500, Bedrooms: 0, Bathrooms: 1, SquareFeet: 420,
		Amenities:   []string{"gym", "rooftop deck"},
		Available:   true,
	},
	{
		Title:       "Riverside Condo",
		Description: "Two bedroom condo on the river path with a balcony and secured garage.",
		Type:        models.PropertyCondo,
		Address:     models.AddressInput{Street: "88 Riverfront Pkwy", City: "Eugene", State: "OR", Zip: "97401"},
		Rent:        1650, Deposit: 1650, Bedrooms: 2, Bathrooms: 2, SquareFeet: 1100,
		Amenities:   []string{"balcony", "garage", "elevator"},
		Available:   true, Featured: true,
	},
	{
		Title:       "Corner Townhouse",
		Description: "Three level townhouse with an attached garage. Leased until spring.",
		Type:        models.PropertyTownhouse,
		Address:     models.AddressInput{Street: "2710 Lancaster Dr NE", City: "Salem", State: "OR", Zip: "97305"},
		Rent:        2200, Deposit: 2200, Bedrooms: 3, Bathrooms: 2.5, SquareFeet: 1500,
		Amenities:   []string{"garage", "dishwasher"},
		PetsAllowed: true,
	},
}

// SeedSample inserts demo listings when the store is empty. It returns the
// number created.
func (s *Service) SeedSample(ctx context.Context) (int, error) {
	existing, err := s.props.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logging.Debug().Int("properties", len(existing)).Msg("Store not empty, skipping sample data")
		return 0, nil
	}

	for i := range sampleProperties {
		in := sampleProperties[i]
		if _, err := s.Create(ctx, &in); err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Title, err)
		}
	}
	logging.Info().Int("properties", len(sampleProperties)).Msg("Seeded sample listings")
	return len(sampleProperties), nil
}
