// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/backup"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/validation"
)

// CreateBackupRequest is the optional body of POST /admin/backups.
type CreateBackupRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// backupError maps backup errors onto the envelope.
func backupError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		rw.NotFound("Backup not found")
	case errors.Is(err, backup.ErrInProgress):
		rw.Conflict("A backup is already running")
	default:
		respondServiceError(rw, err, "Backup")
	}
}

func (h *Handler) backupsEnabled(rw *ResponseWriter) bool {
	if h.Backups == nil {
		rw.ServiceUnavailable("Backups are disabled")
		return false
	}
	return true
}

// ListBackups returns all backups, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	list, err := h.Backups.List(r.Context())
	if err != nil {
		backupError(rw, err)
		return
	}
	rw.SuccessWithPagination(list, NewPagination(int64(len(list)), len(list), 0, len(list)))
}

// CreateBackup runs a manual backup synchronously.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	var req CreateBackupRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondServiceError(rw, err, "Backup")
			return
		}
		if verr := validation.ValidateStruct(&req); verr != nil {
			rw.ValidationError(verr)
			return
		}
	}
	b, err := h.Backups.Create(r.Context(), backup.TriggerManual, req.Notes)
	if err != nil {
		backupError(rw, err)
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeBackupCreated, audit.Target{Type: "backup", ID: b.ID}, "backup "+b.FileName+" created")
	rw.Created(b)
}

// GetBackup returns one backup record.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	b, err := h.Backups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		backupError(rw, err)
		return
	}
	rw.Success(b)
}

// VerifyBackup re-reads an archive and checks its checksums.
func (h *Handler) VerifyBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	v, err := h.Backups.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		backupError(rw, err)
		return
	}
	rw.Success(v)
}

// DownloadBackup streams the archive file.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	f, b, err := h.Backups.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		backupError(rw, err)
		return
	}
	defer f.Close() //nolint:errcheck // read-only

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+b.FileName+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(b.SizeBytes, 10))
	if _, err := io.Copy(w, f); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("backup_id", b.ID).Msg("Backup download interrupted")
	}
}

// DeleteBackup removes a backup and its archive.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsEnabled(rw) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Backups.Delete(r.Context(), id); err != nil {
		backupError(rw, err)
		return
	}
	h.Audit.LogAdminAction(r, audit.EventTypeBackupDeleted, audit.Target{Type: "backup", ID: id}, "backup deleted")
	rw.NoContent()
}
