package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/excel-finder/internal/model"
)

// Session records whether a user is logged in and who. The invariant
// LoggedIn implies User != nil is enforced on both load and save.
type Session struct {
	LoggedIn bool        `json:"loggedIn"`
	User     *model.User `json:"user,omitempty"`
}

// SessionStore persists the session as a JSON file so a login survives
// process restarts. All writes go through Save or Clear; there is no
// partial update.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load reads the persisted session. A missing, unreadable, or
// invariant-violating file yields a logged-out session rather than an
// error; the stored state is a cache, not a source of truth.
func (s *SessionStore) Load() *Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &Session{}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return &Session{}
	}
	if sess.LoggedIn && sess.User == nil {
		return &Session{}
	}
	if !sess.LoggedIn {
		sess.User = nil
	}
	return &sess
}

// Save persists a logged-in session for user.
func (s *SessionStore) Save(user *model.User) error {
	if user == nil {
		return errors.New("client: cannot save a session without a user")
	}

	data, err := json.Marshal(Session{LoggedIn: true, User: user})
	if err != nil {
		return fmt.Errorf("client: encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("client: creating session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("client: writing session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is
// not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("client: clearing session: %w", err)
	}
	return nil
}
