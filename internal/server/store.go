package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lox/blackjackforbots/internal/game"
)

// ErrNotFound is returned when no state exists under a (table, key) pair.
var ErrNotFound = errors.New("state not found")

// Store extends the game-side save hook with the ability to load state back,
// which is what lets LOGIN restore a session.
type Store interface {
	game.Store
	LoadState(table, key string, obj any) error
}

// NoopStore keeps nothing. LOGIN against it always fails, which matches a
// server with persistence disabled.
type NoopStore struct {
	game.NoopStore
}

// LoadState implements Store.
func (NoopStore) LoadState(table, key string, obj any) error {
	return ErrNotFound
}

// FileStore keeps one JSON file per (table, key) pair under a base directory.
// Writes go through a temp-file-and-rename so a crash mid-write never leaves
// a truncated record behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// SaveState implements Store.
func (s *FileStore) SaveState(table, key string, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode state %s/%s: %w", table, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, filepath.Base(table))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, filepath.Base(key)+".json"), data, 0o644)
}

// LoadState implements Store.
func (s *FileStore) LoadState(table, key string, obj any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, filepath.Base(table), filepath.Base(key)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read state %s/%s: %w", table, key, err)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("decode state %s/%s: %w", table, key, err)
	}
	return nil
}

// writeFileAtomic writes data via a temp file in the same directory followed
// by a rename, so readers see either the old record or the new one, never a
// partial write.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
