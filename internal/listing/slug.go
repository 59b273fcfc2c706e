// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package listing

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tomtom215/rentline/internal/models"
)

const maxSlugLen = 80

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if len(s) > maxSlugLen {
		s = strings.TrimSuffix(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "property"
	}
	return s
}

// uniqueSlug appends -2, -3, ... until base collides with no listing other
// than selfID.
func uniqueSlug(base string, all []models.Property, selfID string) string {
	taken := make(map[string]bool, len(all))
	for i := range all {
		if all[i].ID != selfID {
			taken[all[i].Slug] = true
		}
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
