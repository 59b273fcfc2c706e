// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package analytics

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Keys are "evt:<unix nanos, 20 digits>:<id>" so lexical order is time order.
const (
	eventKeyPrefix = "evt:"
	tsDigits       = 20
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerDB event log at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open analytics badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already open database. The store owns db and
// closes it on Close.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func eventKey(e *Event) []byte {
	return []byte(fmt.Sprintf("%s%0*d:%s", eventKeyPrefix, tsDigits, e.Timestamp.UnixNano(), e.ID))
}

// keyTime decodes the timestamp part of an event key.
func keyTime(key []byte) (time.Time, bool) {
	if len(key) < len(eventKeyPrefix)+tsDigits {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(string(key[len(eventKeyPrefix):len(eventKeyPrefix)+tsDigits]), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n), true
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, e *Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(e), data)
	})
}

// scan walks events newest first within the filter's time window and calls
// fn for each match. fn returns false to stop.
func (s *BadgerStore) scan(ctx context.Context, f *Filter, fn func(*Event) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(eventKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(eventKeyPrefix + "\xff")
		if !f.Until.IsZero() {
			// Largest key strictly before Until.
			seek = []byte(fmt.Sprintf("%s%0*d", eventKeyPrefix, tsDigits, f.Until.UnixNano()-1) + ":\xff")
		}

		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if ts, ok := keyTime(item.Key()); ok && !f.Since.IsZero() && ts.Before(f.Since) {
				return nil
			}

			var e Event
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode event %s: %w", item.Key(), err)
			}
			if !f.Matches(&e) {
				continue
			}
			if !fn(&e) {
				return nil
			}
		}
		return nil
	})
}

// Query implements Store.
func (s *BadgerStore) Query(ctx context.Context, f Filter) ([]Event, error) {
	out := []Event{}
	skipped := 0
	err := s.scan(ctx, &f, func(e *Event) bool {
		if skipped < f.Offset {
			skipped++
			return true
		}
		out = append(out, *e)
		return f.Limit <= 0 || len(out) < f.Limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count implements Store.
func (s *BadgerStore) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	err := s.scan(ctx, &f, func(*Event) bool {
		n++
		return true
	})
	return n, err
}

// DeleteBefore implements Store.
func (s *BadgerStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(eventKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts, ok := keyTime(it.Item().Key())
			if ok && !ts.Before(cutoff) {
				return nil
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired events: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return len(keys), nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Backup writes a full Badger backup stream to w.
func (s *BadgerStore) Backup(w io.Writer) error {
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup analytics db: %w", err)
	}
	return nil
}
