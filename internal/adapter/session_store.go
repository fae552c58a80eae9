package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// SessionFile holds the agent role session inside the output directory.
const SessionFile = "session.json"

// SessionStore persists the agent role session between invocations.
type SessionStore interface {
	LoadSession(ctx context.Context, dir m.Path) (m.SessionState, bool, error)
	SaveSession(ctx context.Context, dir m.Path, state m.SessionState) error
}

// LocalSessionStore keeps the session as JSON on disk.
type LocalSessionStore struct{}

// NewLocalSessionStore constructs a LocalSessionStore.
func NewLocalSessionStore() *LocalSessionStore {
	return &LocalSessionStore{}
}

// LoadSession returns the stored session. The boolean is false when no
// session has been saved yet.
func (s *LocalSessionStore) LoadSession(ctx context.Context, dir m.Path) (m.SessionState, bool, error) {
	if err := ctx.Err(); err != nil {
		return m.SessionState{}, false, err
	}

	path := filepath.Join(string(dir), SessionFile)

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return m.SessionState{}, false, nil
	}

	if err != nil {
		slog.Error("failed to read session", "path", path, "error", err)
		return m.SessionState{}, false, fmt.Errorf("read session: %w", err)
	}

	var state m.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return m.SessionState{}, false, fmt.Errorf("decode session %s: %w", path, err)
	}

	return state, true, nil
}

// SaveSession writes the session, creating the directory when needed.
func (s *LocalSessionStore) SaveSession(ctx context.Context, dir m.Path, state m.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	path := filepath.Join(string(dir), SessionFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		slog.Error("failed to write session", "path", path, "error", err)
		return fmt.Errorf("write session: %w", err)
	}

	return nil
}
