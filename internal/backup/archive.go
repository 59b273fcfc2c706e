// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

const manifestName = "manifest.json"

// archiveWriters closes file, gzip and tar writers in reverse order.
type archiveWriters struct {
	tw      *tar.Writer
	closers []io.Closer
}

func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) openArchive(p string) (*archiveWriters, error) {
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	gz, err := gzip.NewWriterLevel(f, m.cfg.CompressionLevel)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)
	return &archiveWriters{tw: tw, closers: []io.Closer{f, gz, tw}}, nil
}

// writeArchive fills the archive and records size and checksum on b.
func (m *Manager) writeArchive(ctx context.Context, b *Backup) (err error) {
	p := m.archivePath(b.FileName)
	aw, err := m.openArchive(p)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := aw.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
		if err == nil {
			err = m.finish(p, b)
		}
	}()

	for _, src := range m.src.DataFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(aw.tw, src, path.Join("data", filepath.Base(src)), b); err != nil {
			return err
		}
	}

	if m.cfg.IncludeUploads && m.src.UploadsDir != "" {
		if err := m.addUploads(ctx, aw.tw, b); err != nil {
			return err
		}
	}

	if m.src.Analytics != nil {
		if err := addStream(aw.tw, "analytics/badger.bak", m.src.Analytics, b); err != nil {
			return err
		}
		b.HasAnalytics = true
	}

	return addManifest(aw.tw, b)
}

// finish stats and hashes the closed archive.
func (m *Manager) finish(p string, b *Backup) error {
	sum, size, err := checksumFile(p)
	if err != nil {
		return err
	}
	b.SizeBytes = size
	b.Checksum = sum
	return nil
}

func (m *Manager) addUploads(ctx context.Context, tw *tar.Writer, b *Backup) error {
	entries, err := os.ReadDir(m.src.UploadsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read uploads: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			continue
		}
		src := filepath.Join(m.src.UploadsDir, e.Name())
		if err := addFile(tw, src, path.Join("uploads", e.Name()), b); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gosec // G304: src comes from the configured data and upload dirs
func addFile(tw *tar.Writer, src, name string, b *Backup) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header %s: %w", src, err)
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tw, h), f)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	b.Files = append(b.Files, File{Path: name, Size: n, Checksum: hex.EncodeToString(h.Sum(nil))})
	return nil
}

// addStream spools a stream to a temp file, since tar needs the size
// before the body.
func addStream(tw *tar.Writer, name string, src StreamSource, b *Backup) error {
	tmp, err := os.CreateTemp("", "rentline-stream-*")
	if err != nil {
		return fmt.Errorf("spool %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // temp file
	defer tmp.Close()           //nolint:errcheck // temp file

	if err := src.Backup(tmp); err != nil {
		return err
	}
	return addFile(tw, tmp.Name(), name, b)
}

func addManifest(tw *tar.Writer, b *Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:    manifestName,
		Mode:    0o640,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

//nolint:gosec // G304: p is inside the backup dir
func checksumFile(p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, err
	}
	defer f.Close() //nolint:errcheck // read-only
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Verify re-reads an archive and checks the archive checksum and the
// checksum of every entry listed in the index.
func (m *Manager) Verify(ctx context.Context, id string) (Verification, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{ID: id}
	p := m.archivePath(b.FileName)

	sum, _, err := checksumFile(p)
	if err != nil {
		v.Problems = append(v.Problems, "archive unreadable: "+err.Error())
		return v, nil
	}
	v.Checksum = sum == b.Checksum
	if !v.Checksum {
		v.Problems = append(v.Problems, "archive checksum mismatch")
	}

	want := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		want[f.Path] = f.Checksum
	}
	if err := walkArchive(p, func(name string, r io.Reader) error {
		if name == manifestName {
			return nil
		}
		h := sha256.New()
		if _, err := io.Copy(h, r); err != nil {
			return err
		}
		v.Files++
		exp, ok := want[name]
		switch {
		case !ok:
			v.Problems = append(v.Problems, "unexpected entry "+name)
		case exp != hex.EncodeToString(h.Sum(nil)):
			v.Problems = append(v.Problems, "checksum mismatch for "+name)
		}
		delete(want, name)
		return nil
	}); err != nil {
		v.Problems = append(v.Problems, "archive corrupt: "+err.Error())
	}
	for name := range want {
		v.Problems = append(v.Problems, "missing entry "+name)
	}
	v.Valid = len(v.Problems) == 0
	return v, nil
}

//nolint:gosec // G304: p is inside the backup dir
func walkArchive(p string, fn func(name string, r io.Reader) error) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close() //nolint:errcheck // read-only
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(hdr.Name, tr); err != nil {
			return err
		}
	}
}
