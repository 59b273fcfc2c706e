// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rentline/internal/validation"
)

// maxJSONBody caps JSON request bodies. Property descriptions and
// application messages are the largest legitimate payloads.
const maxJSONBody = 64 << 10

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("%w: %s", ErrInvalidJSON, err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after object", ErrInvalidJSON)
	}
	return nil
}

// queryParams reads typed query parameters and collects the first parse
// failure as a validation error.
type queryParams struct {
	r   *http.Request
	err *validation.RequestValidationError
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{r: r}
}

func (q *queryParams) fail(name, tag, msg string) {
	if q.err == nil {
		q.err = validation.NewError(name, tag, msg)
	}
}

func (q *queryParams) str(name string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(name))
}

func (q *queryParams) integer(name string, def, lo, hi int) int {
	raw := q.str(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name, "number", name+" must be a whole number")
		return def
	}
	if v < lo || v > hi {
		q.fail(name, "range", fmt.Sprintf("%s must be between %d and %d", name, lo, hi))
		return def
	}
	return v
}

func (q *queryParams) number(name string) float64 {
	raw := q.str(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		q.fail(name, "number", name+" must be a non-negative number")
		return 0
	}
	return v
}

// optBool parses a tri-state flag: absent means nil.
func (q *queryParams) optBool(name string) *bool {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name, "boolean", name+" must be true or false")
		return nil
	}
	return &v
}

func (q *queryParams) list(name string) []string {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (q *queryParams) timestamp(name string) time.Time {
	raw := q.str(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t
	}
	q.fail(name, "datetime", name+" must be RFC3339 or YYYY-MM-DD")
	return time.Time{}
}
