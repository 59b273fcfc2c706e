// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron is a parsed standard cron schedule: five fields
// (minute hour day-of-month month day-of-week) or a descriptor such as
// @weekly. When both day fields are restricted, a time matching either
// one fires.
type Cron struct {
	expr  string
	sched cron.Schedule
}

// ParseCron parses expr.
func ParseCron(expr string) (*Cron, error) {
	expr = strings.Join(strings.Fields(expr), " ")
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("cron expression %q: %w", expr, err)
	}
	return &Cron{expr: expr, sched: sched}, nil
}

// String returns the normalized expression.
func (c *Cron) String() string { return c.expr }

// NextRun returns the first matching minute strictly after the given
// time, evaluated in loc (UTC when nil). The zero time means the
// schedule never fires.
func (c *Cron) NextRun(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return c.sched.Next(after.In(loc))
}
