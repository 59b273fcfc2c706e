// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package upload stores property images on disk.
//
// The declared Content-Type of an upload is ignored. The first bytes are
// sniffed with mimetype and only the configured image types are kept,
// under a random name with the extension of the detected type.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
)

var (
	// ErrTooLarge is returned when an upload exceeds uploads.max_size_mb.
	ErrTooLarge = errors.New("upload exceeds the size limit")

	// ErrUnsupportedType is returned for content that is not an allowed image.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidName is returned for names that could escape the upload dir.
	ErrInvalidName = errors.New("invalid file name")
)

// DefaultAllowedTypes are accepted when no types are configured.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Store writes uploads into one directory.
type Store struct {
	dir      string
	maxBytes int64
	allowed  []string
}

// New creates the upload directory if needed.
func New(cfg config.UploadsConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	allowed := cfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	return &Store{dir: cfg.Dir, maxBytes: cfg.MaxBytes(), allowed: allowed}, nil
}

// Dir is the directory served at /uploads/.
func (s *Store) Dir() string { return s.dir }

// MaxBytes is the per-file limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Saved describes a stored upload.
type Saved struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Save sniffs r, and if it holds an allowed image, writes it as <uuid><ext>.
func (s *Store) Save(r io.Reader) (*Saved, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !s.isAllowed(mt) {
		return nil, fmt.Errorf("%s: %w", mt.String(), ErrUnsupportedType)
	}

	name := uuid.New().String() + mt.Extension()
	if err := writeFile(filepath.Join(s.dir, name), data); err != nil {
		return nil, err
	}

	logging.Debug().Str("name", name).Str("mime", mt.String()).Int("size", len(data)).Msg("Upload stored")
	return &Saved{Name: name, MIMEType: mt.String(), Size: int64(len(data))}, nil
}

func (s *Store) isAllowed(mt *mimetype.MIME) bool {
	for _, t := range s.allowed {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// Delete removes a stored upload. Missing files are not an error.
func (s *Store) Delete(name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// DeleteAll removes every named upload, logging failures.
func (s *Store) DeleteAll(names []string) {
	for _, n := range names {
		if err := s.Delete(n); err != nil {
			logging.Warn().Err(err).Str("name", n).Msg("Failed to delete upload")
		}
	}
}

// ValidName reports whether name is a plain file name inside the upload dir.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename upload: %w", err)
	}
	return nil
}
