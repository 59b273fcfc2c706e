// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/upload"
)

const (
	defaultFeatured = 6
	maxFeatured     = 24

	// imageField is the multipart field carrying an uploaded image.
	imageField = "image"
)

// searchFilter reads listing.Filter from the query string.
func searchFilter(r *http.Request) (listing.Filter, *queryParams) {
	q := newQueryParams(r)
	f := listing.Filter{
		Query:        q.str("q"),
		City:         q.str("city"),
		Type:         models.PropertyType(q.str("type")),
		MinRent:      q.integer("min_rent", 0, 0, 1_000_000),
		MaxRent:      q.integer("max_rent", 0, 0, 1_000_000),
		MinBedrooms:  q.integer("min_bedrooms", 0, 0, 20),
		MinBathrooms: q.number("min_bathrooms"),
		Pets:         q.optBool("pets"),
		Amenities:    q.list("amenities"),
		Sort:         q.str("sort"),
		Limit:        q.integer("limit", listing.DefaultLimit, 1, listing.MaxLimit),
		Offset:       q.integer("offset", 0, 0, 1_000_000),
	}
	return f, q
}

func (h *Handler) runSearch(w http.ResponseWriter, r *http.Request, availableOnly bool) {
	rw := NewResponseWriter(w, r)
	f, q := searchFilter(r)
	if availableOnly {
		f.AvailableOnly = true
	} else if v := q.optBool("available_only"); v != nil {
		f.AvailableOnly = *v
	}
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}

	page, err := h.Listings.Search(r.Context(), f)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	rw.SuccessWithPagination(page.Items, NewPagination(int64(page.Total), len(page.Items), page.Offset, page.Limit))
}

// SearchProperties lists available properties.
func (h *Handler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	h.runSearch(w, r, true)
}

// FeaturedProperties lists available featured properties, newest first.
func (h *Handler) FeaturedProperties(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := newQueryParams(r)
	n := q.integer("limit", defaultFeatured, 1, maxFeatured)
	if q.err != nil {
		rw.ValidationError(q.err)
		return
	}
	props, err := h.Listings.Featured(r.Context(), n)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	rw.Success(props)
}

// PropertyCities lists cities with available listings.
func (h *Handler) PropertyCities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	cities, err := h.Listings.Cities(r.Context())
	if err != nil {
		respondServiceError(rw, err, "City")
		return
	}
	rw.Success(cities)
}

// GetProperty returns one available property by ID or slug. Unavailable
// listings are hidden from the public API.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p, err := h.Listings.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	if !p.Available {
		rw.NotFound("Property not found")
		return
	}
	rw.Success(p)
}

// AdminListProperties lists every property; available_only is optional.
func (h *Handler) AdminListProperties(w http.ResponseWriter, r *http.Request) {
	h.runSearch(w, r, false)
}

// AdminGetProperty returns a property regardless of availability.
func (h *Handler) AdminGetProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p, err := h.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	rw.Success(p)
}

// CreateProperty adds a listing.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.PropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	p, err := h.Listings.Create(r.Context(), &in)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	logging.Ctx(r.Context()).Info().Str("property_id", p.ID).Str("slug", p.Slug).Msg("Property created")
	h.Audit.LogAdminAction(r, audit.EventTypePropertyCreated, audit.Target{Type: "property", ID: p.ID}, "created "+p.Slug)
	rw.Created(p)
}

// UpdateProperty replaces the editable fields of a listing.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var in models.PropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	p, err := h.Listings.Update(r.Context(), chi.URLParam(r, "id"), &in)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypePropertyUpdated, audit.Target{Type: "property", ID: p.ID}, "updated "+p.Slug)
	rw.Success(p)
}

// DeleteProperty removes a listing and its image files.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")
	images, err := h.Listings.Delete(r.Context(), id)
	if err != nil {
		respondServiceError(rw, err, "Property")
		return
	}
	h.Uploads.DeleteAll(images)
	logging.Ctx(r.Context()).Info().Str("property_id", id).Int("images", len(images)).Msg("Property deleted")
	h.Audit.LogAdminAction(r, audit.EventTypePropertyDeleted, audit.Target{Type: "property", ID: id}, "property deleted")
	rw.NoContent()
}

// UploadPropertyImage stores a multipart image and attaches it to the
// property. The file is removed again if the property update fails.
func (h *Handler) UploadPropertyImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	if _, err := h.Listings.Get(r.Context(), id); err != nil {
		respondServiceError(rw, err, "Property")
		return
	}

	// Allow room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxBytes()+64<<10)
	part, err := imagePart(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = upload.ErrTooLarge
		}
		respondServiceError(rw, err, "Image")
		return
	}
	defer part.Close()

	saved, err := h.Uploads.Save(part)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = upload.ErrTooLarge
		}
		respondServiceError(rw, err, "Image")
		return
	}

	p, err := h.Listings.AddImage(r.Context(), id, saved.Name)
	if err != nil {
		if derr := h.Uploads.Delete(saved.Name); derr != nil {
			logging.Ctx(r.Context()).Warn().Err(derr).Str("image", saved.Name).Msg("Failed to remove orphaned upload")
		}
		respondServiceError(rw, err, "Property")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("property_id", id).
		Str("image", saved.Name).
		Str("mime", saved.MIMEType).
		Int64("size", saved.Size).
		Msg("Property image uploaded")
	h.Audit.LogAdminAction(r, audit.EventTypePropertyImageAdded, audit.Target{Type: "property", ID: id}, "image "+saved.Name+" added")
	rw.Created(p)
}

// imagePart streams to the image field without buffering the form.
func imagePart(r *http.Request) (io.ReadCloser, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errMultipart
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errMissingImage
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == imageField {
			return part, nil
		}
		_ = part.Close()
	}
}

// DeletePropertyImage detaches an image and deletes the file.
func (h *Handler) DeletePropertyImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")
	if !upload.ValidName(name) {
		respondServiceError(rw, upload.ErrInvalidName, "Image")
		return
	}
	p, err := h.Listings.RemoveImage(r.Context(), id, name)
	if err != nil {
		respondServiceError(rw, err, "Image")
		return
	}
	if err := h.Uploads.Delete(name); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("image", name).Msg("Failed to delete image file")
	}
	h.Audit.LogAdminAction(r, audit.EventTypePropertyImageRemoved, audit.Target{Type: "property", ID: id}, "image "+name+" removed")
	rw.Success(p)
}
