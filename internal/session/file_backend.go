package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noah-isme/stage-portal/internal/models"
)

// FileBackend persists the session as a JSON file on disk, the durable
// local storage the portal survives restarts with.
type FileBackend struct {
	path string
}

// NewFileBackend ensures the parent directory exists and returns a handle.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		path = "./.portal-session.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}
	return &FileBackend{path: path}, nil
}

// Load reads the persisted session. A missing or corrupt file means no
// session rather than an error worth surfacing.
func (b *FileBackend) Load(_ context.Context) (*models.Session, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session with owner-only permissions.
func (b *FileBackend) Save(_ context.Context, s *models.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(b.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the persisted session if present.
func (b *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}
