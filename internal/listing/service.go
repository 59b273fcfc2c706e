// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package listing manages property records and public search.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/validation"
)

// ErrImageNotFound is returned when removing an image the listing does not have.
var ErrImageNotFound = errors.New("image not attached to property")

// Service reads and writes properties.json.
type Service struct {
	props *store.Collection[models.Property]
	now   func() time.Time
}

// NewService wraps the property collection.
func NewService(props *store.Collection[models.Property]) *Service {
	return &Service{props: props, now: time.Now}
}

// Create validates input and stores a new listing with a unique slug.
func (s *Service) Create(ctx context.Context, in *models.PropertyInput) (models.Property, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Property{}, verr
	}

	all, err := s.props.All(ctx)
	if err != nil {
		return models.Property{}, err
	}

	now := s.now().UTC()
	p := models.Property{
		ID:        uuid.New().String(),
		Images:    []string{},
		CreatedAt: now,
	}
	applyInput(&p, in, now)
	p.Slug = uniqueSlug(slugify(in.Title), all, "")

	if err := s.props.Insert(ctx, p); err != nil {
		return models.Property{}, err
	}
	logging.Ctx(ctx).Info().Str("property_id", p.ID).Str("slug", p.Slug).Msg("Property created")
	return p, nil
}

// Update replaces the editable fields of a listing. The slug changes only
// when the title does.
func (s *Service) Update(ctx context.Context, id string, in *models.PropertyInput) (models.Property, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Property{}, verr
	}

	all, err := s.props.All(ctx)
	if err != nil {
		return models.Property{}, err
	}

	return s.props.Update(ctx, id, func(p *models.Property) error {
		if p.Title != strings.TrimSpace(in.Title) {
			p.Slug = uniqueSlug(slugify(in.Title), all, p.ID)
		}
		applyInput(p, in, s.now().UTC())
		return nil
	})
}

// Delete removes a listing and returns the image file names it referenced.
func (s *Service) Delete(ctx context.Context, id string) ([]string, error) {
	removed, err := s.props.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("property_id", id).Int("images", len(removed.Images)).Msg("Property deleted")
	return removed.Images, nil
}

// Get looks a listing up by ID or slug.
func (s *Service) Get(ctx context.Context, ref string) (models.Property, error) {
	return s.props.Find(ctx, func(p models.Property) bool {
		return p.ID == ref || p.Slug == ref
	})
}

// All returns every listing, available or not.
func (s *Service) All(ctx context.Context) ([]models.Property, error) {
	return s.props.All(ctx)
}

// AddImage appends an uploaded image file name to a listing.
func (s *Service) AddImage(ctx context.Context, id, name string) (models.Property, error) {
	return s.props.Update(ctx, id, func(p *models.Property) error {
		p.Images = append(p.Images, name)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
}

// RemoveImage detaches an image file name from a listing.
func (s *Service) RemoveImage(ctx context.Context, id, name string) (models.Property, error) {
	return s.props.Update(ctx, id, func(p *models.Property) error {
		for i, img := range p.Images {
			if img == name {
				p.Images = append(p.Images[:i], p.Images[i+1:]...)
				p.UpdatedAt = s.now().UTC()
				return nil
			}
		}
		return fmt.Errorf("%s: %w", name, ErrImageNotFound)
	})
}

func applyInput(p *models.Property, in *models.PropertyInput, now time.Time) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Type = in.Type
	p.Address = in.Address.ToAddress()
	p.Rent = in.Rent
	p.Deposit = in.Deposit
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.SquareFeet = in.SquareFeet
	p.Amenities = normalizeAmenities(in.Amenities)
	p.PetsAllowed = in.PetsAllowed
	p.Available = in.Available
	p.AvailableFrom = in.AvailableFrom
	p.Featured = in.Featured
	p.UpdatedAt = now
}

// normalizeAmenities trims entries and drops blanks and case-insensitive duplicates.
func normalizeAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
