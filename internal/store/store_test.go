// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type item struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func (i item) GetID() string { return i.ID }

func openItems(t *testing.T) *Collection[item] {
	t.Helper()
	c, err := Open[item](t.TempDir(), "items")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestOpenCreatesEmptyArray(t *testing.T) {
	t.Parallel()

	c := openItems(t)
	data, err := os.ReadFile(c.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("new file = %q, want []", data)
	}
	all, err := c.All(context.Background())
	if err != nil || len(all) != 0 {
		t.Errorf("All() = %v, %v; want empty", all, err)
	}
}

func TestInsertGetUpdateDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openItems(t)

	if err := c.Insert(ctx, item{ID: "a", Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := c.Insert(ctx, item{ID: "a", Value: 2}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate insert err = %v, want ErrDuplicate", err)
	}

	got, err := c.Get(ctx, "a")
	if err != nil || got.Value != 1 {
		t.Fatalf("Get(a) = %+v, %v", got, err)
	}

	updated, err := c.Update(ctx, "a", func(i *item) error {
		i.Value = 5
		return nil
	})
	if err != nil || updated.Value != 5 {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	boom := errors.New("boom")
	if _, err := c.Update(ctx, "a", func(i *item) error {
		i.Value = 99
		return boom
	}); !errors.Is(err, boom) {
		t.Errorf("Update err = %v, want boom", err)
	}
	if got, _ := c.Get(ctx, "a"); got.Value != 5 {
		t.Errorf("failed update was persisted: %+v", got)
	}

	if _, err := c.Update(ctx, "missing", func(*item) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) err = %v", err)
	}

	removed, err := c.Delete(ctx, "a")
	if err != nil || removed.ID != "a" {
		t.Fatalf("Delete = %+v, %v", removed, err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openItems(t)
	match := func(i item) bool { return i.ID == "x" }
	create := func() item { return item{ID: "x"} }
	incr := func(i *item) error { i.Value++; return nil }

	for n := 1; n <= 3; n++ {
		got, err := c.Upsert(ctx, match, create, incr)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value != n {
			t.Errorf("after %d upserts Value = %d", n, got.Value)
		}
	}
	all, _ := c.All(ctx)
	if len(all) != 1 {
		t.Errorf("expected a single record, got %d", len(all))
	}
}

func TestConcurrentInsertsAreSerialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openItems(t)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = c.Insert(ctx, item{ID: string(rune('a' + n)), Value: n})
		}(i)
	}
	wg.Wait()

	all, err := c.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 25 {
		t.Errorf("expected 25 records, got %d", len(all))
	}
}

func TestCorruptFileIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Open[item](dir, "items")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.All(context.Background()); err == nil {
		t.Error("expected decode error for corrupt file")
	}
	data, _ := os.ReadFile(c.Path())
	if string(data) != "{not json" {
		t.Error("corrupt file must not be overwritten")
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	c := openItems(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Insert(ctx, item{ID: "a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert with cancelled ctx err = %v", err)
	}
}
