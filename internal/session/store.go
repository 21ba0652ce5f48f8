// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated session: bearer token plus cached
// user profile, persisted under the config directory so a restarted client
// can resume without re-login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// User is the cached profile for the authenticated user.
type User struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Phase tracks where the session is in its lifecycle.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
	PhaseRefreshing
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// persistedSession is the on-disk shape of session.json. The token field
// carries the ENC: prefix when at-rest encryption is enabled.
type persistedSession struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user_info,omitempty"`
}

// ErrNoSession indicates no stored session exists.
var ErrNoSession = errors.New("no stored session")

// =============================================================================
// STORE
// =============================================================================

// Store holds the session in memory and mirrors it to disk on every change.
type Store struct {
	mu    sync.RWMutex
	token string
	user  *User
	phase Phase

	path    string
	keys    *keystore // nil when encryption is disabled
	encrypt bool
}

// NewStore creates a session store rooted at dir (typically ~/.cloudinv).
// When encrypt is true the bearer token is AES-256-GCM encrypted at rest.
func NewStore(dir string, encrypt bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &Store{
		path:    filepath.Join(dir, "session.json"),
		encrypt: encrypt,
	}

	if encrypt {
		ks, err := openKeystore(filepath.Join(dir, "session.key"))
		if err != nil {
			return nil, err
		}
		s.keys = ks
	}

	return s, nil
}

// Hydrate loads a previously persisted session from disk. A missing file is
// not an error; the store just starts unauthenticated. A corrupt or
// undecryptable file is discarded.
func (s *Store) Hydrate() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		os.Remove(s.path)
		return nil
	}

	token := ps.AccessToken
	if s.keys != nil && token != "" {
		token, err = s.keys.decrypt(token)
		if err != nil {
			// Key rotated or file tampered; force re-login.
			os.Remove(s.path)
			return nil
		}
	}

	// User info with no token is stale state; discard rather than show a
	// half-authenticated UI.
	if token == "" {
		os.Remove(s.path)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = ps.User
	s.phase = PhaseAuthenticated
	s.mu.Unlock()
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Token returns the current bearer token, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the cached profile, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// HasStoredAuth reports whether a token is held. Cheap and synchronous; used
// for the optimistic startup gate before the session is validated.
func (s *Store) HasStoredAuth() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetPhase transitions the lifecycle phase.
func (s *Store) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// =============================================================================
// MUTATION
// =============================================================================

// SetAuth stores a new token and profile and persists them.
func (s *Store) SetAuth(token string, user *User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.phase = PhaseAuthenticated
	s.mu.Unlock()
	return s.persist()
}

// SetToken replaces the bearer token, keeping the cached profile. Used after
// a refresh.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.phase = PhaseAuthenticated
	s.mu.Unlock()
	return s.persist()
}

// SetUser replaces the cached profile, typically after GET /auth/me hydrates
// permissions that the login response omits.
func (s *Store) SetUser(user *User) error {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return s.persist()
}

// Clear wipes the session in memory and on disk.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.phase = PhaseUnauthenticated
	s.mu.Unlock()
	os.Remove(s.path)
}

func (s *Store) persist() error {
	s.mu.RLock()
	token := s.token
	user := s.user
	s.mu.RUnlock()

	if token == "" {
		os.Remove(s.path)
		return nil
	}

	if s.keys != nil {
		enc, err := s.keys.encrypt(token)
		if err != nil {
			return fmt.Errorf("failed to encrypt token: %w", err)
		}
		token = enc
	}

	data, err := json.MarshalIndent(persistedSession{AccessToken: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return util.AtomicWriteFile(s.path, data, 0600)
}

// =============================================================================
// TOKEN EXPIRY
// =============================================================================

// TokenExpiringSoon reports whether the token's embedded expiry falls within
// buffer of now. The JWT is parsed without signature verification; the client
// only inspects the claim, the backend remains the authority. A missing or
// malformed token, or one without an exp claim, counts as expiring so the
// caller refreshes rather than sending a doomed request.
func (s *Store) TokenExpiringSoon(buffer time.Duration) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return time.Until(exp.Time) <= buffer
}
