package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// User is the authenticated account as returned by the backend.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session holds the bearer token and the account it belongs to. It is an
// explicit object threaded through the client; there is no ambient global
// state.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// MemorySessionStore keeps the session in memory only.
type MemorySessionStore struct {
	mu      sync.Mutex
	session Session
}

// NewMemorySessionStore constructs an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load returns the stored session.
func (m *MemorySessionStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

// Save stores the session.
func (m *MemorySessionStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

// Clear drops the session.
func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

// FileSessionStore persists the session as JSON on disk.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore constructs a store writing to path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load reads the session file. A missing file yields an empty session.
func (f *FileSessionStore) Load() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt session file behaves like a logged-out state.
		return Session{}, nil
	}
	return s, nil
}

// Save writes the session file with user-only permissions.
func (f *FileSessionStore) Save(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// Clear removes the session file.
func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
