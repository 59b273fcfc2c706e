// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package logging

import "testing"

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"12345", "***"},
		{"+15551234567", "+1******4567"},
		{"5551234567", "******4567"},
	}
	for _, tt := range tests {
		if got := MaskPhone(tt.in); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value, want string
	}{
		{"auth_token", "abcdefghijklmnop", "abcd...mnop"},
		{"from", "+15551234567", "+1******4567"},
		{"email", "john.doe@example.com", "jo***@example.com"},
		{"body", "line1\nline2", "line1 line2"},
	}
	for _, tt := range tests {
		if got := SanitizeValue(tt.key, tt.value); got != tt.want {
			t.Errorf("SanitizeValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}
