// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/store"
)

// Manager creates, lists and prunes backups.
type Manager struct {
	cfg     config.BackupConfig
	src     Sources
	index   *store.Collection[Backup]
	running sync.Mutex
	now     func() time.Time
}

// NewManager prepares the backup directory and its index.
func NewManager(cfg config.BackupConfig, src Sources) (*Manager, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	index, err := store.Open[Backup](cfg.Dir, "index")
	if err != nil {
		return nil, err
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = -1
	}
	return &Manager{cfg: cfg, src: src, index: index, now: time.Now}, nil
}

// Create writes a new archive and applies retention. A failed run is
// recorded in the index with its error.
func (m *Manager) Create(ctx context.Context, trigger Trigger, notes string) (Backup, error) {
	if !m.running.TryLock() {
		return Backup{}, ErrInProgress
	}
	defer m.running.Unlock()

	start := m.now().UTC()
	id := uuid.NewString()
	b := Backup{
		ID:        id,
		CreatedAt: start,
		Trigger:   trigger,
		Notes:     notes,
		FileName:  fmt.Sprintf("rentline-backup-%s-%s.tar.gz", start.Format("20060102-150405"), id[:8]),
	}

	err := m.writeArchive(ctx, &b)
	b.Duration = m.now().Sub(start)
	if err != nil {
		b.Status = StatusFailed
		b.Error = err.Error()
		_ = os.Remove(m.archivePath(b.FileName))
		metrics.BackupsTotal.WithLabelValues(string(trigger), "failure").Inc()
		logging.Error().Err(err).Str("backup_id", id).Str("trigger", string(trigger)).Msg("Backup failed")
	} else {
		b.Status = StatusCompleted
		metrics.BackupsTotal.WithLabelValues(string(trigger), "success").Inc()
		metrics.BackupLastSuccess.Set(float64(m.now().Unix()))
		metrics.BackupSizeBytes.Set(float64(b.SizeBytes))
		logging.Info().
			Str("backup_id", id).
			Str("file", b.FileName).
			Int64("size", b.SizeBytes).
			Int("files", len(b.Files)).
			Dur("duration", b.Duration).
			Msg("Backup completed")
	}

	if ierr := m.index.Insert(ctx, b); ierr != nil {
		return b, fmt.Errorf("record backup: %w", ierr)
	}
	if err != nil {
		return b, err
	}

	if _, rerr := m.ApplyRetention(ctx); rerr != nil {
		logging.Warn().Err(rerr).Msg("Backup retention failed")
	}
	return b, nil
}

func (m *Manager) archivePath(name string) string {
	return filepath.Join(m.cfg.Dir, name)
}

// List returns all backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Backup, error) {
	all, err := m.index.All(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b Backup) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return all, nil
}

// Get returns one backup.
func (m *Manager) Get(ctx context.Context, id string) (Backup, error) {
	b, err := m.index.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Backup{}, ErrNotFound
	}
	return b, err
}

// Open returns the archive file of a completed backup for download.
func (m *Manager) Open(ctx context.Context, id string) (*os.File, Backup, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, Backup{}, err
	}
	if b.Status != StatusCompleted {
		return nil, b, ErrNotFound
	}
	f, err := os.Open(m.archivePath(b.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, b, ErrNotFound
	}
	return f, b, err
}

// Delete removes a backup and its archive.
func (m *Manager) Delete(ctx context.Context, id string) error {
	b, err := m.index.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := os.Remove(m.archivePath(b.FileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}

// ApplyRetention deletes failed runs, backups beyond MaxCount and those
// older than MaxAge. The newest completed backup is always kept.
func (m *Manager) ApplyRetention(ctx context.Context) (int, error) {
	all, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Time{}
	if m.cfg.MaxAge > 0 {
		cutoff = m.now().Add(-m.cfg.MaxAge)
	}

	var doomed []string
	kept := 0
	for _, b := range all {
		switch {
		case b.Status != StatusCompleted:
			doomed = append(doomed, b.ID)
		case kept == 0:
			kept++
		case m.cfg.MaxCount > 0 && kept >= m.cfg.MaxCount,
			!cutoff.IsZero() && b.CreatedAt.Before(cutoff):
			doomed = append(doomed, b.ID)
		default:
			kept++
		}
	}

	for _, id := range doomed {
		if err := m.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	if len(doomed) > 0 {
		logging.Info().Int("deleted", len(doomed)).Int("kept", kept).Msg("Pruned old backups")
	}
	return len(doomed), nil
}

// Serve runs scheduled backups until ctx ends. With no interval it only
// waits for shutdown.
func (m *Manager) Serve(ctx context.Context) error {
	if m.cfg.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Create(ctx, TriggerScheduled, ""); errors.Is(err, ErrInProgress) {
				logging.Info().Msg("Skipping scheduled backup, one is already running")
			}
		}
	}
}

// String implements fmt.Stringer for suture.
func (m *Manager) String() string { return "backup-scheduler" }
