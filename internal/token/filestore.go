package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// sessionFile is the on-disk layout: the same three entries the web client
// kept in browser storage, serialized as one JSON document.
type sessionFile struct {
	AccessToken  string          `json:"accessToken,omitempty"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// FileStore persists the session to a JSON file so it survives process
// restarts. Writes go through a temp file and rename, so a crash mid-write
// never leaves a torn token pair on disk.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the file at path. The parent
// directory is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) SaveTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	state.AccessToken = access
	state.RefreshToken = refresh
	return s.write(state)
}

func (s *FileStore) UpdateAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	if state.RefreshToken == "" {
		return ErrNoRefreshToken
	}
	state.AccessToken = access
	return s.write(state)
}

func (s *FileStore) ReadTokens() (Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	if state.AccessToken == "" || state.RefreshToken == "" {
		return Tokens{}, false
	}
	return Tokens{Access: state.AccessToken, Refresh: state.RefreshToken}, true
}

func (s *FileStore) SaveProfile(profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	state.User = append(json.RawMessage(nil), profile...)
	return s.write(state)
}

func (s *FileStore) ReadProfile() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	if len(state.User) == 0 {
		return nil, false
	}
	return append([]byte(nil), state.User...), true
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("token: clear session file: %w", err)
	}
	return nil
}

// read loads the current state. A missing or unreadable file is an empty
// session, not an error.
func (s *FileStore) read() sessionFile {
	var state sessionFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return sessionFile{}
	}
	return state
}

func (s *FileStore) write(state sessionFile) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("token: marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("token: create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("token: create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("token: write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("token: close session file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("token: chmod session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("token: replace session file: %w", err)
	}
	return nil
}
