// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package logging

import (
	"strings"
	"unicode"
)

// MaskPhone keeps the country prefix and the last four digits.
// Example: "+15551234567" -> "+1******4567"
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) <= 6 {
		return "***"
	}
	prefix := 0
	if strings.HasPrefix(phone, "+") {
		prefix = 2
	}
	return phone[:prefix] + strings.Repeat("*", len(phone)-prefix-4) + phone[len(phone)-4:]
}

// MaskEmail masks the local part of an address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// MaskToken shows only the first and last four characters.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

var sensitiveKeys = map[string]bool{
	"token":       true,
	"password":    true,
	"secret":      true,
	"api_key":     true,
	"auth_token":  true,
	"cookie":      true,
	"session":     true,
	"session_id":  true,
	"signature":   true,
	"account_sid": true,
}

// SanitizeValue redacts a value based on its key name, masks email-like
// values, and strips control characters from free text before it reaches
// a log line.
func SanitizeValue(key, value string) string {
	lk := strings.ToLower(key)
	if sensitiveKeys[lk] {
		return MaskToken(value)
	}
	if lk == "phone" || lk == "from" || lk == "to" || lk == "address" {
		return MaskPhone(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return MaskEmail(value)
	}
	return Truncate(stripControl(value), 200)
}

// Truncate cuts s to maxLen bytes and appends "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
