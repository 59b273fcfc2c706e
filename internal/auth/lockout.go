// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/rentline/internal/logging"
)

// ErrAccountLocked is returned when authentication is blocked due to lockout.
var ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts")

// LockoutConfig holds configuration for the account lockout system.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int

	// LockoutDuration is the base lockout period. It doubles on each
	// subsequent lockout, up to MaxLockoutDuration.
	LockoutDuration    time.Duration
	MaxLockoutDuration time.Duration

	// CleanupInterval is how often expired entries are dropped.
	CleanupInterval time.Duration
}

// DefaultLockoutConfig returns sensible defaults.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		CleanupInterval:    5 * time.Minute,
	}
}

// LockoutEntry tracks failed login attempts for a subject (username or IP).
type LockoutEntry struct {
	Subject        string    `json:"subject"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
	LockoutCount   int       `json:"lockout_count"`
	LockedUntil    time.Time `json:"locked_until"`
}

// LockoutManager handles account lockout. State is in memory; a restart
// clears it. It implements suture.Service for periodic cleanup.
type LockoutManager struct {
	config  LockoutConfig
	mu      sync.Mutex
	entries map[string]*LockoutEntry
	now     func() time.Time
}

// NewLockoutManager creates a new lockout manager.
func NewLockoutManager(config LockoutConfig) *LockoutManager {
	def := DefaultLockoutConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.LockoutDuration <= 0 {
		config.LockoutDuration = def.LockoutDuration
	}
	if config.MaxLockoutDuration < config.LockoutDuration {
		config.MaxLockoutDuration = def.MaxLockoutDuration
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	return &LockoutManager{config: config, entries: make(map[string]*LockoutEntry), now: time.Now}
}

// CheckLocked reports whether the subject is locked and for how long.
func (m *LockoutManager) CheckLocked(subject string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[subject]
	if !ok {
		return false, 0
	}
	now := m.now()
	if !now.Before(entry.LockedUntil) {
		return false, 0
	}
	return true, entry.LockedUntil.Sub(now)
}

// calculateLockoutDuration doubles the base period per previous lockout.
func calculateLockoutDuration(config *LockoutConfig, lockoutCount int) time.Duration {
	duration := config.LockoutDuration
	for i := 0; i < lockoutCount && duration < config.MaxLockoutDuration; i++ {
		duration *= 2
	}
	if duration > config.MaxLockoutDuration {
		return config.MaxLockoutDuration
	}
	return duration
}

// RecordFailedAttempt records a failed login and reports whether the
// subject is now locked.
func (m *LockoutManager) RecordFailedAttempt(subject string) (locked bool, remaining time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[subject]
	if !ok {
		entry = &LockoutEntry{Subject: subject}
		m.entries[subject] = entry
	}
	if now.Before(entry.LockedUntil) {
		return true, entry.LockedUntil.Sub(now)
	}

	entry.FailedAttempts++
	entry.LastAttempt = now
	if entry.FailedAttempts < m.config.MaxAttempts {
		return false, 0
	}

	d := calculateLockoutDuration(&m.config, entry.LockoutCount)
	entry.LockedUntil = now.Add(d)
	entry.LockoutCount++
	entry.FailedAttempts = 0

	logging.Warn().
		Str("subject", entry.Subject).
		Dur("duration", d).
		Int("lockout_count", entry.LockoutCount).
		Msg("Account locked")
	return true, d
}

// RecordSuccessfulLogin clears the lockout state for a subject.
func (m *LockoutManager) RecordSuccessfulLogin(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, subject)
}

// Cleanup drops entries that are unlocked and idle for a day.
func (m *LockoutManager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	threshold := now.Add(-24 * time.Hour)
	count := 0
	for subject, entry := range m.entries {
		if !now.Before(entry.LockedUntil) && entry.LastAttempt.Before(threshold) {
			delete(m.entries, subject)
			count++
		}
	}
	return count
}

// Serve runs Cleanup periodically until ctx is cancelled.
func (m *LockoutManager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				logging.Info().Int("count", n).Msg("Cleaned up expired lockout entries")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (m *LockoutManager) String() string { return "auth-lockout-cleanup" }
