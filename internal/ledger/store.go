// Package ledger owns the persisted shop document: loading and saving
// the single JSON file, and the mutation service that is the only
// writer to it.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"barbapro/internal/core"
	"barbapro/internal/log"
)

// Store persists whole-document snapshots.
type Store interface {
	Load() (*core.Ledger, error)
	Save(ledger *core.Ledger) error
}

// FileStore keeps the ledger in one JSON file. Saves go through a temp
// file and a rename so a crash mid-write never leaves a torn document.
type FileStore struct {
	path   string
	roster []string
	logger *log.Logger
}

// NewFileStore creates a store for the given file path. The roster
// seeds the fresh document used when the file is missing or unreadable.
func NewFileStore(path string, roster []string, logger *log.Logger) *FileStore {
	return &FileStore{
		path:   path,
		roster: roster,
		logger: logger.WithComponent(log.ComponentStore),
	}
}

// Load reads the document from disk. A missing or corrupt file is not
// fatal: the store starts over from a fresh default document and
// persists it immediately, so the service always boots.
func (s *FileStore) Load() (*core.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &core.PersistenceError{Op: "load", Err: err}
		}
		s.logger.Info("Ledger file missing, starting fresh", log.FieldFile, s.path)
		return s.reset()
	}

	ledger := &core.Ledger{}
	if err := json.Unmarshal(data, ledger); err != nil {
		s.logger.Warn("Ledger file unreadable, starting fresh",
			log.FieldFile, s.path, log.FieldError, err.Error())
		return s.reset()
	}
	return ledger, nil
}

func (s *FileStore) reset() (*core.Ledger, error) {
	fresh := core.DefaultLedger(s.roster)
	if err := s.Save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(ledger *core.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &core.PersistenceError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &core.PersistenceError{Op: "save", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &core.PersistenceError{Op: "save", Err: fmt.Errorf("replace %s: %w", s.path, err)}
	}
	return nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }
