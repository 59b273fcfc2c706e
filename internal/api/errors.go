// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/inquiry"
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/upload"
)

var (
	// ErrBodyTooLarge is returned by decodeJSON for oversized bodies.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrInvalidJSON is returned by decodeJSON for malformed bodies.
	ErrInvalidJSON = errors.New("invalid JSON body")

	errMultipart    = errors.New("request must be multipart/form-data")
	errMissingImage = errors.New(`multipart form has no "image" file`)
)

// respondServiceError maps a domain error to the matching HTTP response.
// what names the resource for 404 messages.
func respondServiceError(rw *ResponseWriter, err error, what string) {
	if verr, ok := asValidation(err); ok {
		rw.ValidationError(verr)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, listing.ErrImageNotFound):
		rw.NotFound(what + " not found")
	case errors.Is(err, store.ErrDuplicate):
		rw.Conflict(what + " already exists")
	case errors.Is(err, inquiry.ErrPropertyUnavailable):
		rw.Conflict("Property is not available for applications")
	case errors.Is(err, inquiry.ErrInvalidTransition):
		rw.Conflict(err.Error())
	case errors.Is(err, conversation.ErrInvalidChannel), errors.Is(err, conversation.ErrMissingAddress):
		rw.BadRequest(err.Error())
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, ErrBodyTooLarge):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
	case errors.Is(err, upload.ErrUnsupportedType):
		rw.Error(http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, err.Error())
	case errors.Is(err, upload.ErrInvalidName), errors.Is(err, ErrInvalidJSON),
		errors.Is(err, errMultipart), errors.Is(err, errMissingImage):
		rw.BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		rw.ServiceUnavailable("Request timed out")
	default:
		rw.StoreError(err)
	}
}
