// Package token owns client-side credential state: the persisted token pair,
// the cached user profile, and unverified JWT claim inspection.
package token

import (
	"errors"
	"sync"
)

// Storage keys, shared by the file and redis stores.
const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUserProfile  = "user"
)

// ErrNoRefreshToken is returned when an access token update is attempted
// without a stored refresh token. An access token is never persisted on its
// own; the pair is written together or not at all.
var ErrNoRefreshToken = errors.New("token: no refresh token stored")

// Tokens is the persisted credential pair.
type Tokens struct {
	Access  string
	Refresh string
}

// Store persists the token pair and the cached profile.
//
// SaveTokens and Clear are atomic with respect to the pair: a reader sees
// both tokens or neither. The profile is advisory and written independently;
// a corrupt stored profile reads as absent.
type Store interface {
	// SaveTokens persists both tokens together.
	SaveTokens(access, refresh string) error
	// UpdateAccessToken replaces the access token, keeping the stored
	// refresh token. Fails with ErrNoRefreshToken when no pair exists.
	UpdateAccessToken(access string) error
	// ReadTokens returns the pair, or ok=false when no pair is stored.
	ReadTokens() (Tokens, bool)
	// SaveProfile caches the serialized user profile.
	SaveProfile(profile []byte) error
	// ReadProfile returns the cached profile, or ok=false when absent.
	ReadProfile() ([]byte, bool)
	// Clear removes tokens and profile together. Clearing an empty store
	// is a no-op.
	Clear() error
}

// MemoryStore is an in-memory Store. It backs tests and one-shot CLI
// invocations that do not need the session to outlive the process.
type MemoryStore struct {
	mu      sync.Mutex
	tokens  *Tokens
	profile []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &Tokens{Access: access, Refresh: refresh}
	return nil
}

func (s *MemoryStore) UpdateAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil || s.tokens.Refresh == "" {
		return ErrNoRefreshToken
	}
	s.tokens = &Tokens{Access: access, Refresh: s.tokens.Refresh}
	return nil
}

func (s *MemoryStore) ReadTokens() (Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return Tokens{}, false
	}
	return *s.tokens, true
}

func (s *MemoryStore) SaveProfile(profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = append([]byte(nil), profile...)
	return nil
}

func (s *MemoryStore) ReadProfile() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, false
	}
	return append([]byte(nil), s.profile...), true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.profile = nil
	return nil
}
