// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import (
	"testing"
	"time"

	"github.com/tomtom215/rentline/internal/models"
)

func TestExtractBedrooms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2 bed", 2, true},
		{"looking for two bedrooms", 2, true},
		{"3br near downtown", 3, true},
		{"a 1-bedroom would be fine", 1, true},
		{"just a studio please", 0, true},
		{"I need 2 beds and $1,800", 2, true},
		{"hello there", 0, false},
		{"$1,800", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractBedrooms(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtractBedrooms(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractBareCount(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int{"2": 2, " three ": 3, "1.": 1} {
		if got, ok := ExtractBareCount(in); !ok || got != want {
			t.Errorf("ExtractBareCount(%q) = %d, %v", in, got, ok)
		}
	}
	for _, in := range []string{"1800", "2 or 3", "maybe"} {
		if _, ok := ExtractBareCount(in); ok {
			t.Errorf("ExtractBareCount(%q) should not match", in)
		}
	}
}

func TestExtractBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"$1,800", 1800, true},
		{"around 1800/mo", 1800, true},
		{"2k", 2000, true},
		{"$2.5k max", 2500, true},
		{"my budget is 1500", 1500, true},
		{"1,200 per month", 1200, true},
		{"$100", 0, false},
		{"$90,000", 0, false},
		{"3br", 0, false},
		{"2 bedrooms", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractBudget(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtractBudget(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	if got, ok := ExtractBareAmount("about 1600 I think"); !ok || got != 1600 {
		t.Errorf("ExtractBareAmount = %d, %v", got, ok)
	}
	if _, ok := ExtractBareAmount("2"); ok {
		t.Error("ExtractBareAmount(2) should not match")
	}
}

func TestExtractMoveIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		in         string
		wantLabel  string
		wantUrgent bool
		wantOK     bool
	}{
		{"ASAP please", "asap", true, true},
		{"right away", "asap", true, true},
		{"this month", "this month", true, true},
		{"next week", "next week", true, true},
		{"next month", "next month", true, true},
		{"in 3 weeks", "in 3 weeks", true, true},
		{"in 2 months", "in 2 months", false, true},
		{"6/1", "Jun 1", true, true},
		{"4/1", "Apr 1", false, true},
		{"sometime in July", "July", false, true},
		{"early March", "March", false, true},
		{"by May", "May", true, true},
		{"may I ask a question", "", false, false},
		{"no idea", "", false, false},
	}
	for _, tt := range tests {
		got, ok := ExtractMoveIn(tt.in, now)
		if ok != tt.wantOK || got.Label != tt.wantLabel || got.Urgent != tt.wantUrgent {
			t.Errorf("ExtractMoveIn(%q) = %+v, %v; want %q urgent=%v ok=%v", tt.in, got, ok, tt.wantLabel, tt.wantUrgent, tt.wantOK)
		}
	}
}

func TestExtractPets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		has, ok bool
	}{
		{"I have a dog", true, true},
		{"two cats", true, true},
		{"no pets", false, true},
		{"we don't have any pets", false, true},
		{"no dogs, but is it pet friendly?", false, true},
		{"nothing", false, false},
	}
	for _, tt := range tests {
		has, ok := ExtractPets(tt.in)
		if has != tt.has || ok != tt.ok {
			t.Errorf("ExtractPets(%q) = %v, %v; want %v, %v", tt.in, has, ok, tt.has, tt.ok)
		}
	}
}

func TestExtractCity(t *testing.T) {
	t.Parallel()

	known := []string{"Portland", "Lake Oswego", "Salem"}
	tests := []struct {
		in   string
		want string
	}{
		{"something in lake oswego please", "Lake Oswego"},
		{"near Portland ideally", "Portland"},
		{"anything in Portlandia?", ""},
		{"I love Salem", ""},
	}
	for _, tt := range tests {
		got, ok := ExtractCity(tt.in, known)
		if got != tt.want || ok != (tt.want != "") {
			t.Errorf("ExtractCity(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
}

func TestExtractName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Hi, my name is Dana Reyes", "Dana Reyes"},
		{"This is Sam", "Sam"},
		{"i'm Priya and I need a place", "Priya"},
		{"I'm Looking for a flat", ""},
		{"I'm interested in the loft", ""},
	}
	for _, tt := range tests {
		got, _ := ExtractName(tt.in)
		if got != tt.want {
			t.Errorf("ExtractName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractViewing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, day, at string
		ok          bool
	}{
		{"Saturday at 10am", "Saturday", "10am", true},
		{"tomorrow afternoon", "tomorrow", "afternoon", true},
		{"this weekend", "this weekend", "", true},
		{"10:30 a.m. on Friday", "Friday", "10:30am", true},
		{"tonight?", "today", "evening", true},
		{"whenever works", "", "", false},
	}
	for _, tt := range tests {
		day, at, ok := ExtractViewing(tt.in)
		if day != tt.day || at != tt.at || ok != tt.ok {
			t.Errorf("ExtractViewing(%q) = %q, %q, %v", tt.in, day, at, ok)
		}
	}
}

func TestYesNo(t *testing.T) {
	t.Parallel()

	if !IsYes("Yes please!") || !IsYes("ok") || IsYes("yesterday was fine") {
		t.Error("IsYes misclassified")
	}
	if !IsNo("No thanks") || !IsNo("nope") || IsNo("Nothing in that area is good") {
		t.Error("IsNo misclassified")
	}
	if !IsNo("No, not this weekend") || IsNo("No problem, Saturday works") || IsNo("no worries, Sunday at 2pm") {
		t.Error("IsNo misclassified a reply naming a day")
	}
}

func TestDetectIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		optedOut bool
		want     Intent
	}{
		{"STOP", false, IntentOptOut},
		{"stop.", false, IntentOptOut},
		{"Unsubscribe", true, IntentOptOut},
		{"please stop texting me so much", false, IntentNone},
		{"START", true, IntentOptIn},
		{"yes", true, IntentOptIn},
		{"START", false, IntentNone},
		{"hello?", true, IntentNone},
		{"HELP", false, IntentHelp},
		{"HELP", true, IntentNone},
		{"let's start over", false, IntentRestart},
		{"can a human call me", false, IntentHandoff},
		{"I want to speak to someone", false, IntentHandoff},
		{"2 bedrooms", false, IntentNone},
	}
	for _, tt := range tests {
		if got := DetectIntent(tt.in, tt.optedOut); got != tt.want {
			t.Errorf("DetectIntent(%q, %v) = %q, want %q", tt.in, tt.optedOut, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	two, budget, yes := 2, 1800, true
	full := models.Lead{
		Profile: models.LeadProfile{Bedrooms: &two, Budget: &budget, MoveIn: "asap", MoveInUrgent: true, Pets: &yes},
		Viewing: &models.Viewing{Day: "Saturday"},
	}
	if got := Score(&full); got != 100 {
		t.Errorf("full score = %d, want 100", got)
	}

	partial := models.Lead{Profile: models.LeadProfile{Bedrooms: &two, Budget: &budget}}
	if got := Score(&partial); got != 45 {
		t.Errorf("partial score = %d, want 45", got)
	}

	for score, want := range map[int]models.Temperature{
		100: models.TemperatureHot, 70: models.TemperatureHot, 69: models.TemperatureWarm,
		40: models.TemperatureWarm, 39: models.TemperatureCold, 0: models.TemperatureCold,
	} {
		if got := TemperatureFor(score); got != want {
			t.Errorf("TemperatureFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestMissingOrder(t *testing.T) {
	t.Parallel()

	var p models.LeadProfile
	steps := []string{"bedrooms", "budget", "move_in", "pets", ""}
	two, budget, no := 2, 1500, false
	for i, want := range steps {
		if got := Missing(p); got != want {
			t.Fatalf("step %d: Missing = %q, want %q", i, got, want)
		}
		switch want {
		case "bedrooms":
			p.Bedrooms = &two
		case "budget":
			p.Budget = &budget
		case "move_in":
			p.MoveIn = "asap"
			if !Qualified(p) {
				t.Error("bedrooms, budget and move-in should qualify")
			}
		case "pets":
			p.Pets = &no
		}
	}
}
