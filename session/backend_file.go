package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend keeps session state in a single JSON document on disk
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend creates the parent directory if missing
func NewFileBackend(path string) (*FileBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

// DefaultPath returns $XDG_STATE_HOME/reelmark/session.json, falling back to
// ~/.local/state when XDG_STATE_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "reelmark", "session.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "reelmark", "session.json"), nil
}

// Path returns the document location
func (f *FileBackend) Path() string {
	return f.path
}

// Load reads key from the document; a missing file means no value
func (f *FileBackend) Load(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	value, ok := doc[key]
	return value, ok, nil
}

// Save writes key to the document
func (f *FileBackend) Save(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.write(doc)
}

// Delete removes key from the document; the file is removed once empty
func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)

	if len(doc) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return f.write(doc)
}

func (f *FileBackend) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	doc := map[string]string{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return doc, nil
}

// write replaces the document atomically via a temp file and rename
func (f *FileBackend) write(doc map[string]string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
