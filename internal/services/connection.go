package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/models"
)

// defaultMySQLPort is used when the supplied port is not numeric.
const defaultMySQLPort = 3306

// ConnectionService is the in-memory registry of configured backend
// connections. It is the only component allowed to mutate Connection
// objects; every mutation replaces the stored value as a whole.
//
// Connections are local bookkeeping, not live sockets: the gateway holds
// the real handles, and credentials are not retained after connect, so a
// toggle is a pure status flip with no re-authentication.
type ConnectionService struct {
	gateway bridge.Gateway
	log     *logrus.Logger

	mu          sync.RWMutex
	connections []*models.Connection
	activeID    uuid.UUID
}

// NewConnectionService creates an empty registry backed by the gateway.
func NewConnectionService(gateway bridge.Gateway, log *logrus.Logger) *ConnectionService {
	return &ConnectionService{
		gateway: gateway,
		log:     log,
	}
}

// Connect validates the kind-specific credential set, opens the backend
// on the gateway, and registers the resulting connection. Validation
// failures return *ValidationError before any network call; gateway
// failures return *ConnectError.
func (s *ConnectionService) Connect(ctx context.Context, req models.ConnectRequest) (*models.Connection, error) {
	payload, err := buildConnectPayload(req)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Connect(ctx, *payload)
	if err != nil {
		s.log.WithError(err).WithField("type", req.Kind).Warn("Connect failed")
		return nil, &ConnectError{Err: err}
	}

	databases := result.Databases
	if len(databases) == 0 {
		databases = result.AvailableTables
	}

	conn := &models.Connection{
		ID:        uuid.New(),
		Name:      req.Name,
		Kind:      req.Kind,
		Status:    models.StatusConnected,
		Databases: databases,
		RAGReady:  result.RAGReady,
		Version:   result.MySQLVersion,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.connections = append(s.connections, conn)
	// Supabase connections arrive already indexed when the gateway
	// reports rag_ready at connect time; they become active immediately.
	if conn.Kind == models.KindSupabase && conn.RAGReady {
		s.activeID = conn.ID
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"connection": conn.ID,
		"type":       conn.Kind,
		"databases":  len(databases),
	}).Info("Connection registered")

	return conn, nil
}

// buildConnectPayload maps the credential fields onto the kind-specific
// wire shape, enforcing the per-kind required sets.
func buildConnectPayload(req models.ConnectRequest) (*bridge.ConnectPayload, error) {
	if !req.Kind.Valid() {
		return nil, &ValidationError{Field: "type"}
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "name"}
	}

	payload := &bridge.ConnectPayload{DatabaseType: string(req.Kind)}

	switch req.Kind {
	case models.KindMongoDB:
		if req.ConnectionString == "" {
			return nil, &ValidationError{Field: "connection_string"}
		}
		payload.ConnectionString = req.ConnectionString

	case models.KindSupabase:
		if req.ConnectionString == "" {
			return nil, &ValidationError{Field: "connection_string"}
		}
		if req.AnonKey == "" {
			return nil, &ValidationError{Field: "anon_key"}
		}
		payload.ConnectionString = req.ConnectionString
		payload.ConnectionKey = req.AnonKey

	case models.KindMySQL:
		switch {
		case req.Host == "":
			return nil, &ValidationError{Field: "host"}
		case req.Username == "":
			return nil, &ValidationError{Field: "username"}
		case req.Port == "":
			return nil, &ValidationError{Field: "port"}
		case req.Password == "":
			return nil, &ValidationError{Field: "password"}
		}
		port, err := strconv.Atoi(req.Port)
		if err != nil || port <= 0 {
			port = defaultMySQLPort
		}
		payload.Host = req.Host
		payload.Username = req.Username
		payload.Port = port
		payload.Password = req.Password
	}

	return payload, nil
}

// Prepare indexes the named database for retrieval-augmented querying.
// On success the connection records the selected database and becomes
// retrieval-ready. Supabase connections are additionally promoted to
// active; the other kinds stay where they are and the user selects
// explicitly (deliberate asymmetry, see DESIGN.md).
func (s *ConnectionService) Prepare(ctx context.Context, id uuid.UUID, databaseName string) (*models.Connection, error) {
	if databaseName == "" {
		return nil, &ValidationError{Field: "database_name"}
	}

	conn, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	_, err = s.gateway.PrepareRAG(ctx, bridge.PreparePayload{
		DatabaseType: string(conn.Kind),
		DatabaseName: databaseName,
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"connection": id,
			"database":   databaseName,
		}).Warn("RAG preparation failed")
		return nil, &PrepareError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrConnectionNotFound
	}

	updated := *s.connections[idx]
	updated.SelectedDatabase = databaseName
	updated.RAGReady = true
	s.connections[idx] = &updated

	if updated.Kind == models.KindSupabase {
		s.activeID = updated.ID
	}

	s.log.WithFields(logrus.Fields{
		"connection": id,
		"database":   databaseName,
	}).Info("RAG prepared")

	return &updated, nil
}

// Toggle flips the connection's status locally. Credentials are not kept
// after connect, so reconnecting after a disconnect is a registry-state
// change only; the gateway is never contacted.
func (s *ConnectionService) Toggle(id uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrConnectionNotFound
	}

	updated := *s.connections[idx]
	if updated.Status == models.StatusConnected {
		updated.Status = models.StatusDisconnected
	} else {
		updated.Status = models.StatusConnected
	}
	s.connections[idx] = &updated

	return &updated, nil
}

// Remove drops the connection from the registry. No gateway call is made.
func (s *ConnectionService) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrConnectionNotFound
	}

	remaining := make([]*models.Connection, 0, len(s.connections)-1)
	remaining = append(remaining, s.connections[:idx]...)
	remaining = append(remaining, s.connections[idx+1:]...)
	s.connections = remaining

	if s.activeID == id {
		s.activeID = uuid.Nil
	}
	return nil
}

// SetActive marks the connection as the single one eligible for query
// execution and question answering.
func (s *ConnectionService) SetActive(id uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrConnectionNotFound
	}
	s.activeID = id
	return s.connections[idx], nil
}

// Active returns the current active connection, or nil when none is set.
func (s *ConnectionService) Active() *models.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == uuid.Nil {
		return nil
	}
	idx := s.indexOf(s.activeID)
	if idx < 0 {
		return nil
	}
	return s.connections[idx]
}

// Get returns the connection with the given id.
func (s *ConnectionService) Get(id uuid.UUID) (*models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrConnectionNotFound
	}
	return s.connections[idx], nil
}

// List returns all connections in registration order.
func (s *ConnectionService) List() []*models.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Connection, len(s.connections))
	copy(out, s.connections)
	return out
}

// indexOf must be called with the lock held.
func (s *ConnectionService) indexOf(id uuid.UUID) int {
	for i, conn := range s.connections {
		if conn.ID == id {
			return i
		}
	}
	return -1
}
