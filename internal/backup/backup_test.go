// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/tomtom215/rentline/internal/config"
)

type fakeStream struct {
	data string
	err  error
}

func (f fakeStream) Backup(w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.data)
	return err
}

// fixture lays out a data dir with two collections and one upload.
func fixture(t *testing.T) (dataFiles []string, uploads string) {
	t.Helper()
	root := t.TempDir()
	for name, body := range map[string]string{
		"properties.json": `[{"id":"p1"}]`,
		"leads.json":      `[]`,
	} {
		p := filepath.Join(root, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		dataFiles = append(dataFiles, p)
	}
	sort.Strings(dataFiles)

	uploads = filepath.Join(root, "uploads")
	if err := os.MkdirAll(uploads, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "abc.jpg"), []byte("\xff\xd8\xffjpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	return dataFiles, uploads
}

func newTestManager(t *testing.T, cfg config.BackupConfig, src Sources) *Manager {
	t.Helper()
	cfg.Dir = filepath.Join(t.TempDir(), "backups")
	m, err := NewManager(cfg, src)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestCreateAndVerify(t *testing.T) {
	t.Parallel()
	files, uploads := fixture(t)
	m := newTestManager(t, config.BackupConfig{MaxCount: 5, IncludeUploads: true}, Sources{
		DataFiles:  files,
		UploadsDir: uploads,
		Analytics:  fakeStream{data: "badger-stream"},
	})
	ctx := context.Background()

	b, err := m.Create(ctx, TriggerManual, "before migration")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Status != StatusCompleted || !b.HasAnalytics || b.SizeBytes == 0 || b.Checksum == "" {
		t.Errorf("backup = %+v", b)
	}
	paths := map[string]bool{}
	for _, f := range b.Files {
		paths[f.Path] = true
	}
	for _, want := range []string{"data/properties.json", "data/leads.json", "uploads/abc.jpg", "analytics/badger.bak"} {
		if !paths[want] {
			t.Errorf("archive missing %s (have %v)", want, paths)
		}
	}

	v, err := m.Verify(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid || v.Files != 4 {
		t.Errorf("Verify() = %+v", v)
	}

	f, got, err := m.Open(ctx, b.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = f.Close()
	if got.Notes != "before migration" {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()
	files, _ := fixture(t)
	m := newTestManager(t, config.BackupConfig{MaxCount: 5}, Sources{DataFiles: files})
	ctx := context.Background()

	b, err := m.Create(ctx, TriggerManual, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.cfg.Dir, b.FileName), []byte("not a tarball"), 0o600); err != nil {
		t.Fatal(err)
	}
	v, err := m.Verify(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Valid || v.Checksum || len(v.Problems) == 0 {
		t.Errorf("tampered archive verified: %+v", v)
	}
}

func TestRetentionByCount(t *testing.T) {
	t.Parallel()
	files, _ := fixture(t)
	m := newTestManager(t, config.BackupConfig{MaxCount: 2}, Sources{DataFiles: files})
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	var last Backup
	for i := 0; i < 4; i++ {
		clock = clock.Add(time.Hour)
		b, err := m.Create(ctx, TriggerScheduled, "")
		if err != nil {
			t.Fatal(err)
		}
		last = b
	}

	list, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != last.ID {
		t.Fatalf("List() = %+v", list)
	}
	entries, _ := os.ReadDir(m.cfg.Dir)
	archives := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".gz" {
			archives++
		}
	}
	if archives != 2 {
		t.Errorf("archives on disk = %d, want 2", archives)
	}
}

func TestRetentionKeepsNewestWhenAllExpired(t *testing.T) {
	t.Parallel()
	files, _ := fixture(t)
	m := newTestManager(t, config.BackupConfig{MaxCount: 10, MaxAge: time.Hour}, Sources{DataFiles: files})
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	first, _ := m.Create(ctx, TriggerManual, "")
	clock = clock.Add(time.Minute)
	second, _ := m.Create(ctx, TriggerManual, "")

	clock = clock.Add(48 * time.Hour)
	n, err := m.ApplyRetention(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := m.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("old backup kept: %v", err)
	}
	if _, err := m.Get(ctx, second.ID); err != nil {
		t.Errorf("newest backup removed: %v", err)
	}
}

func TestFailedBackupIsRecordedThenPruned(t *testing.T) {
	t.Parallel()
	files, _ := fixture(t)
	src := Sources{DataFiles: files, Analytics: fakeStream{err: errors.New("disk full")}}
	m := newTestManager(t, config.BackupConfig{MaxCount: 3}, src)
	ctx := context.Background()

	failed, err := m.Create(ctx, TriggerManual, "")
	if err == nil || failed.Status != StatusFailed || failed.Error == "" {
		t.Fatalf("Create() = %+v, %v", failed, err)
	}
	if _, err := os.Stat(filepath.Join(m.cfg.Dir, failed.FileName)); !os.IsNotExist(err) {
		t.Error("partial archive left behind")
	}
	if _, _, err := m.Open(ctx, failed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(failed) = %v", err)
	}

	m.src.Analytics = nil
	if _, err := m.Create(ctx, TriggerManual, ""); err != nil {
		t.Fatal(err)
	}
	list, _ := m.List(ctx)
	if len(list) != 1 || list[0].Status != StatusCompleted {
		t.Errorf("List() = %+v", list)
	}
}

func TestCreateRejectsConcurrentRun(t *testing.T) {
	t.Parallel()
	files, _ := fixture(t)
	m := newTestManager(t, config.BackupConfig{MaxCount: 3}, Sources{DataFiles: files})

	m.running.Lock()
	_, err := m.Create(context.Background(), TriggerManual, "")
	m.running.Unlock()
	if !errors.Is(err, ErrInProgress) {
		t.Errorf("Create() error = %v, want ErrInProgress", err)
	}
	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestServeWithoutScheduleWaitsForShutdown(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, config.BackupConfig{MaxCount: 1}, Sources{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
	if m.String() != "backup-scheduler" {
		t.Errorf("String() = %q", m.String())
	}
}
