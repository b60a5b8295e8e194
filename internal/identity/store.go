// Package identity persists the opaque per-visitor identifier the widget
// forwards with every message. The id is created lazily on first access
// and reused for the lifetime of the store, matching the browser widget's
// localStorage behavior.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// userIDKey matches the localStorage key the original widget used.
const userIDKey = "nemawashi_user_id"

// Store exposes the stable visitor identifier.
type Store interface {
	// UserID returns the persisted identifier, creating one if absent.
	UserID() (string, error)
	// Clear drops the identifier; the next UserID call mints a new one.
	Clear() error
}

// MemoryStore implements Store without persistence, suitable for tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.values[userIDKey]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.values[userIDKey] = id
	return id, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, userIDKey)
	return nil
}

// FileStore persists values as a small JSON map on disk.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore backed by the given file. The file and
// its directory are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	if id, ok := values[userIDKey]; ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	values[userIDKey] = id
	if err := s.save(values); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear identity store: %w", err)
	}
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity store: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse identity store: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode identity store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity store: %w", err)
	}
	return nil
}
