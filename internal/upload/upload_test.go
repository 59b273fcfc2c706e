// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package upload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/rentline/internal/config"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(config.UploadsConfig{Dir: filepath.Join(t.TempDir(), "uploads"), MaxSizeMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func tinyImage() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 1, 1)
	return img
}

func TestSaveSniffsContent(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	var pngBuf, gifBuf bytes.Buffer
	if err := png.Encode(&pngBuf, tinyImage()); err != nil {
		t.Fatal(err)
	}
	if err := gif.Encode(&gifBuf, tinyImage(), nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantErr error
	}{
		{"png", pngBuf.Bytes(), ".png", nil},
		{"gif", gifBuf.Bytes(), ".gif", nil},
		{"html", []byte("<html><body>hi</body></html>"), "", ErrUnsupportedType},
		{"text", []byte("just some text"), "", ErrUnsupportedType},
		{"too large", bytes.Repeat([]byte{0}, 1<<20+1), "", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := s.Save(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasSuffix(saved.Name, tt.wantExt) || saved.Size != int64(len(tt.data)) {
				t.Errorf("saved = %+v", saved)
			}
			got, err := os.ReadFile(filepath.Join(s.Dir(), saved.Name))
			if err != nil || !bytes.Equal(got, tt.data) {
				t.Errorf("stored file mismatch: %v", err)
			}
		})
	}
}

func TestAllowedTypesFromConfig(t *testing.T) {
	t.Parallel()
	s, err := New(config.UploadsConfig{Dir: t.TempDir(), MaxSizeMB: 1, AllowedTypes: []string{"image/jpeg"}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, tinyImage()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(&buf); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("png with jpeg-only config: err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, tinyImage()); err != nil {
		t.Fatal(err)
	}
	saved, err := s.Save(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(saved.Name); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), saved.Name)); !os.IsNotExist(err) {
		t.Error("file still present")
	}
	if err := s.Delete(saved.Name); err != nil {
		t.Errorf("deleting a missing file: %v", err)
	}

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		if err := s.Delete(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Delete(%q) err = %v", name, err)
		}
	}
}
