// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package backup

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrInProgress is returned when a backup is requested while one runs.
	ErrInProgress = errors.New("a backup is already running")

	// ErrNotFound is returned for an unknown backup ID.
	ErrNotFound = errors.New("backup not found")
)

// Trigger records what started a backup.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// Status is the outcome of a backup run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Backup describes one archive.
type Backup struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Trigger      Trigger       `json:"trigger"`
	Status       Status        `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	FileName     string        `json:"file_name"`
	SizeBytes    int64         `json:"size_bytes"`
	Checksum     string        `json:"checksum,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	Files        []File        `json:"files"`
	HasAnalytics bool          `json:"has_analytics"`
	Error        string        `json:"error,omitempty"`
}

// GetID implements store.Record.
func (b Backup) GetID() string { return b.ID }

// File is one archive entry.
type File struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// StreamSource writes a self-contained backup stream, such as a Badger
// database backup.
type StreamSource interface {
	Backup(w io.Writer) error
}

// Sources are the inputs of a backup.
type Sources struct {
	// DataFiles are JSON collection files, archived under data/.
	DataFiles []string

	// UploadsDir is archived under uploads/ when IncludeUploads is set.
	UploadsDir string

	// Analytics is optional.
	Analytics StreamSource
}

// Verification is the result of re-reading an archive.
type Verification struct {
	ID       string   `json:"id"`
	Valid    bool     `json:"valid"`
	Checksum bool     `json:"checksum_ok"`
	Files    int      `json:"files"`
	Problems []string `json:"problems,omitempty"`
}
