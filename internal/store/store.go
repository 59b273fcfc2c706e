// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package store persists records as flat JSON files.
//
// Each Collection is one file holding a JSON array. Every operation reads
// the whole file, and every mutation rewrites the whole file. A mutex per
// collection serializes read-modify-write cycles within the process, and
// writes go through a temp file plus rename so readers never observe a
// partial file.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rentline/internal/metrics"
)

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when inserting a record whose ID exists.
	ErrDuplicate = errors.New("record already exists")
)

// Record is anything with a stable string ID.
type Record interface {
	GetID() string
}

// Collection is a JSON-array file of records of type T.
type Collection[T Record] struct {
	mu   sync.Mutex
	name string
	path string
}

// Open returns the collection stored at dir/name.json, creating the
// directory and an empty array file when missing.
func Open[T Record](dir, name string) (*Collection[T], error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	c := &Collection[T]{name: name, path: filepath.Join(dir, name+".json")}

	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		if err := atomicWrite(c.path, []byte("[]\n")); err != nil {
			return nil, fmt.Errorf("init %s: %w", c.path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", c.path, err)
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Path returns the backing file path.
func (c *Collection[T]) Path() string { return c.path }

// All returns every record in file order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the record with the given ID.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	return c.Find(ctx, func(r T) bool { return r.GetID() == id })
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, error) {
	var zero T
	all, err := c.All(ctx)
	if err != nil {
		return zero, err
	}
	for _, r := range all {
		if pred(r) {
			return r, nil
		}
	}
	return zero, ErrNotFound
}

// Insert appends rec and rewrites the file.
func (c *Collection[T]) Insert(ctx context.Context, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return err
	}
	for _, r := range all {
		if r.GetID() == rec.GetID() {
			return fmt.Errorf("%s %s: %w", c.name, rec.GetID(), ErrDuplicate)
		}
	}
	return c.save(ctx, append(all, rec))
}

// Update applies fn to the record with the given ID and rewrites the file.
// If fn returns an error nothing is written and the error is returned.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	for i := range all {
		if all[i].GetID() != id {
			continue
		}
		if err := fn(&all[i]); err != nil {
			return zero, err
		}
		if err := c.save(ctx, all); err != nil {
			return zero, err
		}
		return all[i], nil
	}
	return zero, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
}

// Upsert applies fn to the first record matching pred, or to a new record
// from create when none matches, and writes the file under one lock.
func (c *Collection[T]) Upsert(ctx context.Context, pred func(T) bool, create func() T, fn func(*T) error) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	idx := -1
	for i := range all {
		if pred(all[i]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		all = append(all, create())
		idx = len(all) - 1
	}
	if err := fn(&all[idx]); err != nil {
		return zero, err
	}
	if err := c.save(ctx, all); err != nil {
		return zero, err
	}
	return all[idx], nil
}

// Delete removes the record with the given ID and returns it.
func (c *Collection[T]) Delete(ctx context.Context, id string) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	for i := range all {
		if all[i].GetID() == id {
			removed := all[i]
			all = append(all[:i], all[i+1:]...)
			if err := c.save(ctx, all); err != nil {
				return zero, err
			}
			return removed, nil
		}
	}
	return zero, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
}

// Replace overwrites the whole file with recs.
func (c *Collection[T]) Replace(ctx context.Context, recs []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, recs)
}

// load must be called with c.mu held.
func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues(c.name, "read").Observe(time.Since(start).Seconds())
	}()

	data, err := os.ReadFile(c.path)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(c.name, "read").Inc()
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	var recs []T
	if len(data) == 0 {
		return recs, nil
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		metrics.StoreErrors.WithLabelValues(c.name, "decode").Inc()
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return recs, nil
}

// save must be called with c.mu held.
func (c *Collection[T]) save(ctx context.Context, recs []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues(c.name, "write").Observe(time.Since(start).Seconds())
	}()

	if recs == nil {
		recs = []T{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := atomicWrite(c.path, append(data, '\n')); err != nil {
		metrics.StoreErrors.WithLabelValues(c.name, "write").Inc()
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpName, path)
}
