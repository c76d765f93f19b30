// Package store persists the bot's knowledge base and verified-trip list
// as a single JSON document.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore reads and writes the snapshot at a fixed path. Writes go through
// a temp file and rename so a crashed save never truncates the store.
type FileStore struct {
	path   string
	logger *slog.Logger

	// Serializes writers; async saves from the flush timer may overlap
	// user-triggered saves.
	mu sync.Mutex
}

// NewFileStore creates a FileStore for the given path.
func NewFileStore(log *slog.Logger, path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: log.With(slog.String("component", "store")),
	}
}

// Load reads and decodes the snapshot. Any failure here is fatal to the
// caller: the bot must not run against a missing or corrupt store.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read storage %s: %w", s.path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode storage %s: %w", s.path, err)
	}
	if snap.URLs == nil {
		snap.URLs = map[string]SiteRecord{}
	}
	return snap, nil
}

// Save encodes and writes the snapshot atomically.
func (s *FileStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("storage dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}

// SaveAsync writes the snapshot in the background. Failures are logged and
// never surfaced; a missed flush must not block or kill message handling.
func (s *FileStore) SaveAsync(snap Snapshot) {
	go func() {
		if err := s.Save(snap); err != nil {
			s.logger.Error("storage save failed", slog.Any("error", err))
			return
		}
		s.logger.Debug("storage saved", slog.String("path", s.path))
	}()
}
