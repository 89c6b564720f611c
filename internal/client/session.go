package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"ewaste/internal/models"
)

// State is the persisted login: the bearer token plus the account it belongs
// to, so dashboards can render without a round trip after restart.
type State struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Session stores the login state in a file, the console equivalent of browser
// local storage. Load failures are treated as logged out rather than fatal.
type Session struct {
	path string
}

func NewSession(path string) *Session {
	return &Session{path: path}
}

// DefaultSessionPath is ~/.ewaste/session.json, falling back to the working
// directory when the home directory cannot be resolved.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ewaste-session.json"
	}
	return filepath.Join(home, ".ewaste", "session.json")
}

func (s *Session) Load() (State, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, false
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil || state.Token == "" {
		return State{}, false
	}
	return state, true
}

func (s *Session) Save(state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *Session) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
