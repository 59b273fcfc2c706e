// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package inquiry handles the public contact form and rental applications,
// and the admin review of both.
package inquiry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/notify"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/validation"
	"github.com/tomtom215/rentline/internal/websocket"
)

// IncomeMultiple is how many times the monthly rent an applicant must earn.
const IncomeMultiple = 3

var (
	// ErrPropertyUnavailable is returned when the referenced property does
	// not exist or is not accepting applications.
	ErrPropertyUnavailable = errors.New("property is not available")

	// ErrInvalidTransition is returned for application status changes the
	// review workflow does not allow.
	ErrInvalidTransition = errors.New("invalid application status transition")
)

// PropertyLookup resolves a property by ID or slug.
type PropertyLookup interface {
	Get(ctx context.Context, ref string) (models.Property, error)
}

// EventRecorder records analytics events.
type EventRecorder interface {
	Record(ctx context.Context, e analytics.Event)
}

// Broadcaster pushes messages to the admin live feed.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// Notifier alerts staff.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification)
}

// Service implements the inquiry flows.
type Service struct {
	properties   PropertyLookup
	contacts     *store.Collection[models.Contact]
	applications *store.Collection[models.Application]
	events       EventRecorder
	notifier     Notifier
	feed         Broadcaster
	now          func() time.Time
}

// NewService wires the inquiry service.
func NewService(
	properties PropertyLookup,
	contacts *store.Collection[models.Contact],
	applications *store.Collection[models.Application],
	events EventRecorder,
	notifier Notifier,
	feed Broadcaster,
) *Service {
	return &Service{
		properties:   properties,
		contacts:     contacts,
		applications: applications,
		events:       events,
		notifier:     notifier,
		feed:         feed,
		now:          time.Now,
	}
}

// SubmitContact stores a contact-form message and alerts staff. Submissions
// that fill the honeypot field are acknowledged but discarded.
func (s *Service) SubmitContact(ctx context.Context, in *models.ContactInput) (models.Contact, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Contact{}, verr
	}

	c := models.Contact{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:      strings.TrimSpace(in.Phone),
		PropertyID: in.PropertyID,
		Message:    strings.TrimSpace(in.Message),
		Status:     models.ContactNew,
		CreatedAt:  s.now().UTC(),
	}

	if in.Website != "" {
		logging.Ctx(ctx).Info().Msg("Contact honeypot triggered, discarding submission")
		return c, nil
	}

	var propertyTitle string
	if in.PropertyID != "" {
		p, err := s.properties.Get(ctx, in.PropertyID)
		if errors.Is(err, store.ErrNotFound) {
			return models.Contact{}, validation.NewError("property_id", "exists", "property_id does not match a listing")
		}
		if err != nil {
			return models.Contact{}, err
		}
		c.PropertyID = p.ID
		propertyTitle = p.Title
	}

	if err := s.contacts.Insert(ctx, c); err != nil {
		return models.Contact{}, fmt.Errorf("save contact: %w", err)
	}

	logging.Ctx(ctx).Info().Str("contact_id", c.ID).Str("email", logging.MaskEmail(c.Email)).Msg("Contact submitted")

	s.events.Record(ctx, analytics.Event{
		Type:       analytics.EventContactSubmitted,
		Channel:    string(models.ChannelWeb),
		PropertyID: c.PropertyID,
	})
	s.feed.Broadcast(websocket.MessageTypeContactSubmitted, c)

	fields := map[string]string{"Name": c.Name, "Email": c.Email}
	if c.Phone != "" {
		fields["Phone"] = c.Phone
	}
	if propertyTitle != "" {
		fields["Property"] = propertyTitle
	}
	s.notifier.Send(ctx, notify.Notification{
		Kind:    notify.KindContact,
		Subject: "New contact from " + c.Name,
		Text:    c.Message,
		Fields:  fields,
	})
	return c, nil
}

// SubmitApplication stores a rental application for an available property.
func (s *Service) SubmitApplication(ctx context.Context, in *models.ApplicationInput) (models.Application, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Application{}, verr
	}

	now := s.now().UTC()
	moveIn, err := time.Parse(time.DateOnly, in.MoveInDate)
	if err != nil {
		return models.Application{}, validation.NewError("move_in_date", "dateonly", "move_in_date must be YYYY-MM-DD")
	}
	if moveIn.Before(now.Truncate(24 * time.Hour)) {
		return models.Application{}, validation.NewError("move_in_date", "future", "move_in_date must not be in the past")
	}

	p, err := s.properties.Get(ctx, in.PropertyID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Application{}, fmt.Errorf("%s: %w", in.PropertyID, ErrPropertyUnavailable)
	}
	if err != nil {
		return models.Application{}, err
	}
	if !p.Available {
		return models.Application{}, fmt.Errorf("%s: %w", p.ID, ErrPropertyUnavailable)
	}

	app := models.Application{
		ID:                     uuid.New().String(),
		PropertyID:             p.ID,
		PropertyTitle:          p.Title,
		FullName:               strings.TrimSpace(in.FullName),
		Email:                  strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:                  strings.TrimSpace(in.Phone),
		MoveInDate:             in.MoveInDate,
		MonthlyIncome:          in.MonthlyIncome,
		Occupants:              in.Occupants,
		HasPets:                in.HasPets,
		PetDetails:             strings.TrimSpace(in.PetDetails),
		EmploymentStatus:       in.EmploymentStatus,
		Message:                strings.TrimSpace(in.Message),
		Status:                 models.ApplicationSubmitted,
		MeetsIncomeRequirement: in.MonthlyIncome >= IncomeMultiple*p.Rent,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.applications.Insert(ctx, app); err != nil {
		return models.Application{}, fmt.Errorf("save application: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("application_id", app.ID).
		Str("property_id", p.ID).
		Bool("meets_income", app.MeetsIncomeRequirement).
		Msg("Application submitted")

	s.events.Record(ctx, analytics.Event{
		Type:       analytics.EventApplicationSubmitted,
		Channel:    string(models.ChannelWeb),
		PropertyID: p.ID,
		Attributes: map[string]string{"meets_income": strconv.FormatBool(app.MeetsIncomeRequirement)},
	})
	s.feed.Broadcast(websocket.MessageTypeApplicationSubmitted, app)
	s.notifier.Send(ctx, notify.Notification{
		Kind:    notify.KindApplication,
		Subject: fmt.Sprintf("New application for %s", p.Title),
		Text:    fmt.Sprintf("%s applied to rent %s from %s.", app.FullName, p.Title, app.MoveInDate),
		Fields: map[string]string{
			"Email":          app.Email,
			"Phone":          app.Phone,
			"Monthly income": strconv.Itoa(app.MonthlyIncome),
			"Meets income":   strconv.FormatBool(app.MeetsIncomeRequirement),
			"Occupants":      strconv.Itoa(app.Occupants),
		},
	})
	return app, nil
}

// ListContacts returns contacts newest first, optionally filtered by status.
func (s *Service) ListContacts(ctx context.Context, status models.ContactStatus) ([]models.Contact, error) {
	all, err := s.contacts.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Contact, 0, len(all))
	for i := range all {
		if status == "" || all[i].Status == status {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SetContactStatus marks a contact new, read or archived.
func (s *Service) SetContactStatus(ctx context.Context, id string, status models.ContactStatus) (models.Contact, error) {
	switch status {
	case models.ContactNew, models.ContactRead, models.ContactArchived:
	default:
		return models.Contact{}, validation.NewError("status", "oneof", "status must be one of: new read archived")
	}
	return s.contacts.Update(ctx, id, func(c *models.Contact) error {
		c.Status = status
		return nil
	})
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	_, err := s.contacts.Delete(ctx, id)
	return err
}

// ApplicationFilter narrows ListApplications.
type ApplicationFilter struct {
	Status     models.ApplicationStatus
	PropertyID string
}

// ListApplications returns applications newest first.
func (s *Service) ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error) {
	all, err := s.applications.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Application, 0, len(all))
	for i := range all {
		if f.Status != "" && all[i].Status != f.Status {
			continue
		}
		if f.PropertyID != "" && all[i].PropertyID != f.PropertyID {
			continue
		}
		out = append(out, all[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetApplication returns one application.
func (s *Service) GetApplication(ctx context.Context, id string) (models.Application, error) {
	return s.applications.Get(ctx, id)
}

// DeleteApplication removes an application.
func (s *Service) DeleteApplication(ctx context.Context, id string) error {
	_, err := s.applications.Delete(ctx, id)
	return err
}

// ApplicationCountsByStatus implements analytics.ApplicationStats.
func (s *Service) ApplicationCountsByStatus(ctx context.Context) (map[string]int, error) {
	all, err := s.applications.All(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for i := range all {
		counts[string(all[i].Status)]++
	}
	return counts, nil
}

var allowedTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationSubmitted: {models.ApplicationReviewing, models.ApplicationApproved, models.ApplicationRejected, models.ApplicationWithdrawn},
	models.ApplicationReviewing: {models.ApplicationApproved, models.ApplicationRejected, models.ApplicationWithdrawn},
}

// CanTransition reports whether the review workflow allows from -> to.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionApplication moves an application to a new review status.
// Non-empty notes replace the stored notes.
func (s *Service) TransitionApplication(ctx context.Context, id string, in *models.ApplicationStatusInput) (models.Application, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return models.Application{}, verr
	}

	var from models.ApplicationStatus
	app, err := s.applications.Update(ctx, id, func(a *models.Application) error {
		if !CanTransition(a.Status, in.Status) {
			return fmt.Errorf("%s -> %s: %w", a.Status, in.Status, ErrInvalidTransition)
		}
		from = a.Status
		a.Status = in.Status
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			a.Notes = notes
		}
		a.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return models.Application{}, err
	}

	logging.Ctx(ctx).Info().
		Str("application_id", id).
		Str("from", string(from)).
		Str("to", string(app.Status)).
		Msg("Application status changed")

	s.events.Record(ctx, analytics.Event{
		Type:       analytics.EventApplicationStatusChanged,
		PropertyID: app.PropertyID,
		Attributes: map[string]string{"from": string(from), "to": string(app.Status)},
	})
	return app, nil
}
