// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name    string   `json:"name" validate:"required,max=10"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Phone   string   `json:"phone" validate:"omitempty,phone"`
	Slug    string   `json:"slug" validate:"omitempty,slug"`
	MoveIn  string   `json:"move_in" validate:"omitempty,dateonly"`
	Kind    string   `json:"kind" validate:"omitempty,oneof=house condo"`
	Tags    []string `json:"tags" validate:"max=2"`
	Ignored string   `json:"-"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	s := sample{
		Name:   "Ana",
		Email:  "ana@example.com",
		Phone:  "+1 (555) 123-4567",
		Slug:   "sunny-loft-2",
		MoveIn: "2026-05-01",
		Kind:   "condo",
	}
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   sample
		field   string
		message string
	}{
		{"required", sample{}, "name", "name is required"},
		{"max string", sample{Name: "abcdefghijkl"}, "name", "name must be at most 10 characters"},
		{"email", sample{Name: "a", Email: "nope"}, "email", "email must be a valid email address"},
		{"phone", sample{Name: "a", Phone: "12ab"}, "phone", "phone must be a valid phone number"},
		{"slug", sample{Name: "a", Slug: "Bad Slug"}, "slug", "slug must contain only lowercase letters, digits and dashes"},
		{"dateonly", sample{Name: "a", MoveIn: "05/01/2026"}, "move_in", "move_in must be a date in YYYY-MM-DD format"},
		{"oneof", sample{Name: "a", Kind: "castle"}, "kind", "kind must be one of: house condo"},
		{"max slice", sample{Name: "a", Tags: []string{"x", "y", "z"}}, "tags", "tags must contain at most 2 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), verr)
			}
			if errs[0].Field != tt.field {
				t.Errorf("field = %q, want %q", errs[0].Field, tt.field)
			}
			if errs[0].Message != tt.message {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.message)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&sample{}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Details["field"] != "name" {
		t.Errorf("Details = %v", single.Details)
	}

	multi := ValidateStruct(&sample{Email: "x", Phone: "y"}).ToAPIError()
	if !strings.Contains(multi.Message, "; ") {
		t.Errorf("expected joined message, got %q", multi.Message)
	}
	fields, ok := multi.Details["fields"].([]FieldError)
	if !ok || len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %v", multi.Details["fields"])
	}
}
