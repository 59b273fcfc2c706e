// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package models defines the records Rentline persists and exchanges over the API.

Records:
  - Property: a rental listing
  - Contact: a contact-form submission
  - Application: a rental application for one property
  - Lead: a prospect talking to the qualification engine over SMS, WhatsApp,
    voice or web chat
  - ViewingRequest: a viewing slot a lead asked for

Every record implements GetID so the generic JSON file store can key it.
*/
package models

import (
	"strings"
	"time"
)

// PropertyType classifies a listing.
type PropertyType string

// Property types accepted by the admin API.
const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyStudio    PropertyType = "studio"
)

// Address is a street address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Property is a rental listing. Rent and Deposit are whole currency units.
type Property struct {
	ID            string       `json:"id"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Type          PropertyType `json:"property_type"`
	Address       Address      `json:"address"`
	Rent          int          `json:"rent"`
	Deposit       int          `json:"deposit"`
	Bedrooms      int          `json:"bedrooms"`
	Bathrooms     float64      `json:"bathrooms"`
	SquareFeet    int          `json:"square_feet"`
	Amenities     []string     `json:"amenities"`
	PetsAllowed   bool         `json:"pets_allowed"`
	Available     bool         `json:"available"`
	AvailableFrom string       `json:"available_from,omitempty"`
	Featured      bool         `json:"featured"`
	Images        []string     `json:"images"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// GetID implements store.Record.
func (p Property) GetID() string { return p.ID }

// HasAmenity reports whether the listing has the named amenity (case-insensitive).
func (p *Property) HasAmenity(name string) bool {
	for _, a := range p.Amenities {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// PropertyInput is the editable part of a Property, as accepted by the admin API.
type PropertyInput struct {
	Title         string       `json:"title" validate:"required,min=3,max=160"`
	Description   string       `json:"description" validate:"max=5000"`
	Type          PropertyType `json:"property_type" validate:"required,oneof=apartment house condo townhouse studio"`
	Address       AddressInput `json:"address" validate:"required"`
	Rent          int          `json:"rent" validate:"gte=1,lte=100000"`
	Deposit       int          `json:"deposit" validate:"gte=0,lte=100000"`
	Bedrooms      int          `json:"bedrooms" validate:"gte=0,lte=20"`
	Bathrooms     float64      `json:"bathrooms" validate:"gte=0,lte=20"`
	SquareFeet    int          `json:"square_feet" validate:"gte=0,lte=100000"`
	Amenities     []string     `json:"amenities" validate:"max=40,dive,min=1,max=60"`
	PetsAllowed   bool         `json:"pets_allowed"`
	Available     bool         `json:"available"`
	AvailableFrom string       `json:"available_from" validate:"omitempty,dateonly"`
	Featured      bool         `json:"featured"`
}

// AddressInput validates an Address.
type AddressInput struct {
	Street string `json:"street" validate:"required,max=200"`
	City   string `json:"city" validate:"required,max=100"`
	State  string `json:"state" validate:"required,max=50"`
	Zip    string `json:"zip" validate:"max=20"`
}

// ToAddress converts the validated input.
func (a AddressInput) ToAddress() Address {
	return Address(a)
}
