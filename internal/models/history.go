package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one successful query generation. Entries are
// in-memory only and ordered newest first; selecting one republishes its
// query to the execution surface without calling generation again.
type HistoryEntry struct {
	ID              uuid.UUID      `json:"id"`
	NaturalLanguage string         `json:"natural_language"`
	Query           string         `json:"query"`
	Database        string         `json:"database,omitempty"`
	Metadata        *QueryMetadata `json:"metadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}
