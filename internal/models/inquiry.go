// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package models

import "time"

// ContactStatus tracks admin handling of a contact submission.
type ContactStatus string

// Contact statuses.
const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactArchived ContactStatus = "archived"
)

// Contact is a contact-form submission.
type Contact struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	PropertyID string        `json:"property_id,omitempty"`
	Message    string        `json:"message"`
	Status     ContactStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// GetID implements store.Record.
func (c Contact) GetID() string { return c.ID }

// ContactInput is the public contact form.
type ContactInput struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	PropertyID string `json:"property_id" validate:"omitempty,max=64"`
	Message    string `json:"message" validate:"required,min=5,max=4000"`

	// Website is a honeypot field; bots fill it, people never see it.
	Website string `json:"website"`
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

// Application statuses. Approved, rejected and withdrawn are terminal.
const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationReviewing ApplicationStatus = "reviewing"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Terminal reports whether no further transitions are allowed.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected || s == ApplicationWithdrawn
}

// Application is a rental application for one property.
type Application struct {
	ID                     string            `json:"id"`
	PropertyID             string            `json:"property_id"`
	PropertyTitle          string            `json:"property_title"`
	FullName               string            `json:"full_name"`
	Email                  string            `json:"email"`
	Phone                  string            `json:"phone"`
	MoveInDate             string            `json:"move_in_date"`
	MonthlyIncome          int               `json:"monthly_income"`
	Occupants              int               `json:"occupants"`
	HasPets                bool              `json:"has_pets"`
	PetDetails             string            `json:"pet_details,omitempty"`
	EmploymentStatus       string            `json:"employment_status"`
	Message                string            `json:"message,omitempty"`
	Status                 ApplicationStatus `json:"status"`
	Notes                  string            `json:"notes,omitempty"`
	MeetsIncomeRequirement bool              `json:"meets_income_requirement"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// GetID implements store.Record.
func (a Application) GetID() string { return a.ID }

// ApplicationInput is the public application form.
type ApplicationInput struct {
	PropertyID       string `json:"property_id" validate:"required,max=64"`
	FullName         string `json:"full_name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Phone            string `json:"phone" validate:"required,phone"`
	MoveInDate       string `json:"move_in_date" validate:"required,dateonly"`
	MonthlyIncome    int    `json:"monthly_income" validate:"gte=0,lte=10000000"`
	Occupants        int    `json:"occupants" validate:"gte=1,lte=20"`
	HasPets          bool   `json:"has_pets"`
	PetDetails       string `json:"pet_details" validate:"max=500"`
	EmploymentStatus string `json:"employment_status" validate:"required,oneof=employed self_employed student retired unemployed other"`
	Message          string `json:"message" validate:"max=4000"`
}

// ApplicationStatusInput is the admin status change request.
type ApplicationStatusInput struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=reviewing approved rejected withdrawn"`
	Notes  string            `json:"notes" validate:"max=4000"`
}
