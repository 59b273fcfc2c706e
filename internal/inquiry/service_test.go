// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package inquiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/notify"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/validation"
	"github.com/tomtom215/rentline/internal/websocket"
)

type fakeProperties map[string]models.Property

func (f fakeProperties) Get(_ context.Context, ref string) (models.Property, error) {
	for _, p := range f {
		if p.ID == ref || p.Slug == ref {
			return p, nil
		}
	}
	return models.Property{}, store.ErrNotFound
}

type recorded struct {
	mu            sync.Mutex
	events        []analytics.Event
	notifications []notify.Notification
	broadcasts    []string
}

func (r *recorded) Record(_ context.Context, e analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorded) Send(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorded) Broadcast(messageType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, messageType)
}

var testNow = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *recorded) {
	t.Helper()
	dir := t.TempDir()
	contacts, err := store.Open[models.Contact](dir, "contacts")
	if err != nil {
		t.Fatal(err)
	}
	apps, err := store.Open[models.Application](dir, "applications")
	if err != nil {
		t.Fatal(err)
	}
	props := fakeProperties{
		"p1": {ID: "p1", Slug: "sunny-loft", Title: "Sunny Loft", Rent: 1500, Available: true},
		"p2": {ID: "p2", Slug: "leased-house", Title: "Leased House", Rent: 2500, Available: false},
	}
	rec := &recorded{}
	svc := NewService(props, contacts, apps, rec, rec, rec)
	clock := testNow
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, rec
}

func validApplication() *models.ApplicationInput {
	return &models.ApplicationInput{
		PropertyID:       "sunny-loft",
		FullName:         "Dana Reyes",
		Email:            "Dana@Example.com",
		Phone:            "(503) 555-0199",
		MoveInDate:       "2026-06-01",
		MonthlyIncome:    4500,
		Occupants:        2,
		EmploymentStatus: "employed",
	}
}

func TestSubmitContact(t *testing.T) {
	t.Parallel()
	svc, rec := newTestService(t)
	ctx := context.Background()

	c, err := svc.SubmitContact(ctx, &models.ContactInput{
		Name:       "Sam Lee",
		Email:      " SAM@example.com ",
		PropertyID: "sunny-loft",
		Message:    "Is parking included?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Email != "sam@example.com" || c.PropertyID != "p1" || c.Status != models.ContactNew {
		t.Errorf("unexpected contact %+v", c)
	}

	list, err := svc.ListContacts(ctx, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListContacts = %d, %v", len(list), err)
	}
	if len(rec.events) != 1 || rec.events[0].Type != analytics.EventContactSubmitted {
		t.Errorf("events = %+v", rec.events)
	}
	if len(rec.notifications) != 1 || rec.notifications[0].Fields["Property"] != "Sunny Loft" {
		t.Errorf("notifications = %+v", rec.notifications)
	}
	if len(rec.broadcasts) != 1 || rec.broadcasts[0] != websocket.MessageTypeContactSubmitted {
		t.Errorf("broadcasts = %v", rec.broadcasts)
	}
}

func TestSubmitContactHoneypot(t *testing.T) {
	t.Parallel()
	svc, rec := newTestService(t)
	ctx := context.Background()

	c, err := svc.SubmitContact(ctx, &models.ContactInput{
		Name:    "Bot",
		Email:   "bot@example.com",
		Message: "cheap pills here",
		Website: "http://spam.example",
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == "" {
		t.Error("honeypot submission should still look accepted")
	}
	list, _ := svc.ListContacts(ctx, "")
	if len(list) != 0 || len(rec.notifications) != 0 || len(rec.events) != 0 {
		t.Error("honeypot submission must not be stored or announced")
	}
}

func TestSubmitContactUnknownProperty(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.SubmitContact(context.Background(), &models.ContactInput{
		Name: "Sam Lee", Email: "sam@example.com", PropertyID: "nope", Message: "hello there",
	})
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestContactStatusAndDelete(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.SubmitContact(ctx, &models.ContactInput{Name: "Sam Lee", Email: "sam@example.com", Message: "hello there"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetContactStatus(ctx, c.ID, "bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
	updated, err := svc.SetContactStatus(ctx, c.ID, models.ContactRead)
	if err != nil || updated.Status != models.ContactRead {
		t.Fatalf("SetContactStatus = %+v, %v", updated, err)
	}
	if list, _ := svc.ListContacts(ctx, models.ContactNew); len(list) != 0 {
		t.Error("status filter should exclude read contacts")
	}
	if err := svc.DeleteContact(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteContact(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSubmitApplication(t *testing.T) {
	t.Parallel()
	svc, rec := newTestService(t)

	app, err := svc.SubmitApplication(context.Background(), validApplication())
	if err != nil {
		t.Fatal(err)
	}
	if app.PropertyID != "p1" || app.PropertyTitle != "Sunny Loft" {
		t.Errorf("property not resolved: %+v", app)
	}
	if !app.MeetsIncomeRequirement {
		t.Error("4500 >= 3 x 1500 should meet the income requirement")
	}
	if app.Status != models.ApplicationSubmitted || app.Email != "dana@example.com" {
		t.Errorf("unexpected application %+v", app)
	}
	if len(rec.notifications) != 1 || rec.notifications[0].Kind != notify.KindApplication {
		t.Errorf("notifications = %+v", rec.notifications)
	}
}

func TestSubmitApplicationIncomeBelowThreshold(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	in := validApplication()
	in.MonthlyIncome = 4499
	app, err := svc.SubmitApplication(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if app.MeetsIncomeRequirement {
		t.Error("4499 < 4500 should not meet the income requirement")
	}
}

func TestSubmitApplicationRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*models.ApplicationInput)
		wantErr   error
		wantValid bool
	}{
		{"unavailable property", func(in *models.ApplicationInput) { in.PropertyID = "p2" }, ErrPropertyUnavailable, false},
		{"unknown property", func(in *models.ApplicationInput) { in.PropertyID = "missing" }, ErrPropertyUnavailable, false},
		{"past move-in", func(in *models.ApplicationInput) { in.MoveInDate = "2026-05-09" }, nil, true},
		{"bad employment", func(in *models.ApplicationInput) { in.EmploymentStatus = "astronaut" }, nil, true},
		{"no occupants", func(in *models.ApplicationInput) { in.Occupants = 0 }, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newTestService(t)
			in := validApplication()
			tt.mutate(in)

			_, err := svc.SubmitApplication(context.Background(), in)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			var verr *validation.RequestValidationError
			if tt.wantValid && !errors.As(err, &verr) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestSubmitApplicationMoveInToday(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	in := validApplication()
	in.MoveInDate = testNow.Format(time.DateOnly)
	if _, err := svc.SubmitApplication(context.Background(), in); err != nil {
		t.Errorf("move-in today should be accepted: %v", err)
	}
}

func TestTransitionApplication(t *testing.T) {
	t.Parallel()
	svc, rec := newTestService(t)
	ctx := context.Background()

	app, err := svc.SubmitApplication(ctx, validApplication())
	if err != nil {
		t.Fatal(err)
	}

	reviewing, err := svc.TransitionApplication(ctx, app.ID, &models.ApplicationStatusInput{Status: models.ApplicationReviewing, Notes: "called employer"})
	if err != nil {
		t.Fatal(err)
	}
	if reviewing.Notes != "called employer" || !reviewing.UpdatedAt.After(app.UpdatedAt) {
		t.Errorf("unexpected application %+v", reviewing)
	}

	approved, err := svc.TransitionApplication(ctx, app.ID, &models.ApplicationStatusInput{Status: models.ApplicationApproved})
	if err != nil {
		t.Fatal(err)
	}
	if approved.Notes != "called employer" {
		t.Error("empty notes should keep the previous notes")
	}

	_, err = svc.TransitionApplication(ctx, app.ID, &models.ApplicationStatusInput{Status: models.ApplicationReviewing})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approved -> reviewing err = %v", err)
	}

	_, err = svc.TransitionApplication(ctx, "missing", &models.ApplicationStatusInput{Status: models.ApplicationReviewing})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing application err = %v", err)
	}

	var changes int
	for _, e := range rec.events {
		if e.Type == analytics.EventApplicationStatusChanged {
			changes++
		}
	}
	if changes != 2 {
		t.Errorf("status change events = %d, want 2", changes)
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to models.ApplicationStatus
		want     bool
	}{
		{models.ApplicationSubmitted, models.ApplicationReviewing, true},
		{models.ApplicationSubmitted, models.ApplicationApproved, true},
		{models.ApplicationReviewing, models.ApplicationWithdrawn, true},
		{models.ApplicationReviewing, models.ApplicationSubmitted, false},
		{models.ApplicationRejected, models.ApplicationApproved, false},
		{models.ApplicationWithdrawn, models.ApplicationReviewing, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestListApplicationsAndCounts(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SubmitApplication(ctx, validApplication())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SubmitApplication(ctx, validApplication())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionApplication(ctx, first.ID, &models.ApplicationStatusInput{Status: models.ApplicationRejected}); err != nil {
		t.Fatal(err)
	}

	all, err := svc.ListApplications(ctx, ApplicationFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListApplications = %d, %v", len(all), err)
	}
	if all[0].ID != second.ID {
		t.Error("applications should be newest first")
	}

	submitted, _ := svc.ListApplications(ctx, ApplicationFilter{Status: models.ApplicationSubmitted})
	if len(submitted) != 1 || submitted[0].ID != second.ID {
		t.Errorf("status filter = %+v", submitted)
	}

	counts, err := svc.ApplicationCountsByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["submitted"] != 1 || counts["rejected"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
