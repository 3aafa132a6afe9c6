// Package memory is the in-process EntryWriter used by tests and by
// deployments without a spreadsheet configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"barbapro/internal/books"
)

type Store struct {
	mu      sync.Mutex
	entries []books.Entry
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, entry books.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []books.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]books.Entry(nil), s.entries...)
}
