// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/rentline/internal/config"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is a staff account.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`

	passwordHash []byte
}

// UserStore holds the configured staff accounts.
type UserStore struct {
	users map[string]*User
	// dummyHash is compared against for unknown users so a miss still
	// runs a bcrypt comparison.
	dummyHash []byte
}

// NewUserStore builds the account list from the admin credentials and
// security.users. Plain-text passwords are hashed here, once.
func NewUserStore(cfg *config.SecurityConfig) (*UserStore, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("rentline-dummy-password"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	s := &UserStore{users: make(map[string]*User), dummyHash: dummy}

	if cfg.AdminUsername != "" {
		if err := s.add(cfg.AdminUsername, cfg.AdminPassword, RoleAdmin); err != nil {
			return nil, err
		}
	}
	for _, u := range cfg.Users {
		role := u.Role
		if role == "" {
			role = RoleAgent
		}
		if err := s.add(u.Username, u.Password, role); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *UserStore) add(username, password, role string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if role != RoleAdmin && role != RoleAgent {
		return fmt.Errorf("user %q: unknown role %q", username, role)
	}
	if _, dup := s.users[strings.ToLower(username)]; dup {
		return fmt.Errorf("user %q is declared twice", username)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}
	s.users[strings.ToLower(username)] = &User{Username: username, Role: role, passwordHash: hash}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func hashPassword(password string) ([]byte, error) {
	if isBcryptHash(password) {
		if _, err := bcrypt.Cost([]byte(password)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
		}
		return []byte(password), nil
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Authenticate checks a username and password. Usernames are case-insensitive.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup returns the account for a username.
func (s *UserStore) Lookup(username string) (*User, bool) {
	u, ok := s.users[strings.ToLower(username)]
	return u, ok
}

// Users lists accounts sorted by username.
func (s *UserStore) Users() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, User{Username: u.Username, Role: u.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Len is the number of accounts.
func (s *UserStore) Len() int { return len(s.users) }
