// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package digest emails staff a periodic summary of lead activity.
//
// A Scheduler fires on a five-field cron expression ("0 8 * * 1" is
// Mondays at 08:00) in a configured time zone. Each run builds a Report
// from the analytics summary and the lead store, renders it as plain
// text and delivers it through the notify dispatcher, so it reaches the
// same email and webhook targets as the other staff alerts.
//
// Admins can preview the next digest or send one immediately from
// /api/v1/admin/digest.
package digest
