package models

import (
	"time"

	"github.com/google/uuid"
)

// BackendKind identifies which family of database a connection talks to.
// The kind is fixed at connect time and determines both the credential
// shape sent to the gateway and the execution dialect.
type BackendKind string

const (
	KindMongoDB  BackendKind = "mongodb"
	KindSupabase BackendKind = "supabase"
	KindMySQL    BackendKind = "mysql"
)

// Valid reports whether k is one of the supported backend kinds.
func (k BackendKind) Valid() bool {
	switch k {
	case KindMongoDB, KindSupabase, KindMySQL:
		return true
	}
	return false
}

// ConnectionStatus is the local registry status of a connection.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Connection is one configured backend in the local registry. It is not a
// live socket: the gateway holds the real handle, and credentials are not
// retained after the initial connect call.
type Connection struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Kind             BackendKind      `json:"type"`
	Status           ConnectionStatus `json:"status"`
	Databases        []string         `json:"databases"`
	RAGReady         bool             `json:"rag_ready"`
	SelectedDatabase string           `json:"selected_database,omitempty"`
	Version          string           `json:"version,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// TargetDatabase is the database name sent with generation and answer
// requests: the prepared database when one was selected, else the
// connection's display name.
func (c *Connection) TargetDatabase() string {
	if c.SelectedDatabase != "" {
		return c.SelectedDatabase
	}
	return c.Name
}

// ConnectRequest carries the credential fields for all backend kinds.
// Which fields are required depends on Kind; see ConnectionService.Connect.
type ConnectRequest struct {
	Name             string      `json:"name"`
	Kind             BackendKind `json:"type"`
	ConnectionString string      `json:"connection_string,omitempty"`
	AnonKey          string      `json:"anon_key,omitempty"`
	Host             string      `json:"host,omitempty"`
	Port             string      `json:"port,omitempty"`
	Username         string      `json:"username,omitempty"`
	Password         string      `json:"password,omitempty"`
}
