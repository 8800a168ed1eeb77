package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/querypilot/querypilot-backend/internal/models"
)

// HistoryService keeps the append-only, newest-first record of generated
// queries for the current process. Selecting an entry republishes its
// query to the execution surface without re-invoking generation.
type HistoryService struct {
	executor *ExecutorService

	mu      sync.RWMutex
	entries []models.HistoryEntry
}

// NewHistoryService creates an empty history bound to the executor.
func NewHistoryService(executor *ExecutorService) *HistoryService {
	return &HistoryService{executor: executor}
}

// Record prepends a new entry.
func (s *HistoryService) Record(input, query, database string, meta *models.QueryMetadata) models.HistoryEntry {
	entry := models.HistoryEntry{
		ID:              uuid.New(),
		NaturalLanguage: input,
		Query:           query,
		Database:        database,
		Metadata:        meta,
		Timestamp:       time.Now(),
	}

	s.mu.Lock()
	updated := make([]models.HistoryEntry, 0, len(s.entries)+1)
	updated = append(updated, entry)
	updated = append(updated, s.entries...)
	s.entries = updated
	s.mu.Unlock()

	return entry
}

// List returns the entries newest first.
func (s *HistoryService) List() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Select republishes the entry's stored query to the execution surface.
// The entry itself is untouched, so repeated selection is idempotent.
func (s *HistoryService) Select(id uuid.UUID) (*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			s.executor.SetQuery(models.GeneratedQuery{
				Input:    entry.NaturalLanguage,
				Query:    entry.Query,
				Metadata: entry.Metadata,
			})
			return &entry, nil
		}
	}
	return nil, ErrHistoryNotFound
}

// Delete removes one entry.
func (s *HistoryService) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			remaining := make([]models.HistoryEntry, 0, len(s.entries)-1)
			remaining = append(remaining, s.entries[:i]...)
			remaining = append(remaining, s.entries[i+1:]...)
			s.entries = remaining
			return nil
		}
	}
	return ErrHistoryNotFound
}

// Clear drops all entries.
func (s *HistoryService) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
