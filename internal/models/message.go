package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMode selects which conversation thread a submission goes to and
// which upstream capability it invokes.
type ChatMode string

const (
	// ModeSQL generates an executable query from the prompt.
	ModeSQL ChatMode = "sql"
	// ModeChat answers a free-form question about the data.
	ModeChat ChatMode = "chat"
)

// Valid reports whether m names a known chat mode.
func (m ChatMode) Valid() bool {
	return m == ModeSQL || m == ModeChat
}

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one turn in a conversation thread.
//
// Loading messages are transient placeholders: they exist between
// submission and upstream response and are replaced in place, never
// updated, once the real reply (or a failure message) arrives.
type ChatMessage struct {
	ID        uuid.UUID   `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Loading   bool        `json:"loading,omitempty"`

	// Query is set on assistant replies in SQL mode: the generated query
	// text exactly as published to the execution surface.
	Query string `json:"query,omitempty"`

	// Structured holds JSON data recognized inside a conversational
	// answer, with Caption carrying any surrounding prose.
	Structured interface{} `json:"structured,omitempty"`
	Caption    string      `json:"caption,omitempty"`
}

// QueryMetadata is the side information a generation call may return
// alongside the query itself. The dispatcher uses it to resolve the
// target collection for document-store execution.
type QueryMetadata struct {
	PrimaryCollection string   `json:"primary_collection,omitempty"`
	RelevantTables    []string `json:"relevant_tables,omitempty"`
}

// GeneratedQuery is the transient artifact published by the orchestrator
// to the execution surface: the query text, the natural-language input
// that produced it, and optional metadata.
type GeneratedQuery struct {
	Input    string         `json:"input"`
	Query    string         `json:"query"`
	Metadata *QueryMetadata `json:"metadata,omitempty"`
}
