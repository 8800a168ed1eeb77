package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/models"
	"github.com/querypilot/querypilot-backend/internal/observability"
)

// Dialect is the execution dialect of a generated query.
type Dialect string

const (
	DialectSQL      Dialect = "sql"
	DialectDocument Dialect = "mongodb"
)

// aggregationDiagnosis augments execution failures whose message points
// at a pipeline-shaped query being routed through the simple filter
// path. The gateway must use the aggregation pipeline for these.
const aggregationDiagnosis = "The query contains aggregation operators (like $count or $group) which must run through the aggregation pipeline, not a plain find. Make sure the execution gateway routes pipeline-shaped queries through its aggregation path."

// ExecutorService is the execution surface and dispatcher: it holds the
// single currently-executable query (published by the orchestrator or
// re-selected from history), decides its dialect, builds the
// backend-specific execution payload, and runs it through the gateway.
type ExecutorService struct {
	gateway     bridge.Gateway
	connections *ConnectionService
	log         *logrus.Logger

	mu      sync.RWMutex
	current *models.GeneratedQuery
}

// NewExecutorService creates a dispatcher with no query published.
func NewExecutorService(gateway bridge.Gateway, connections *ConnectionService, log *logrus.Logger) *ExecutorService {
	return &ExecutorService{
		gateway:     gateway,
		connections: connections,
		log:         log,
	}
}

// SetQuery publishes a generated query as the active one for execution.
// This is the only path by which a query becomes executable.
func (s *ExecutorService) SetQuery(q models.GeneratedQuery) {
	s.mu.Lock()
	s.current = &q
	s.mu.Unlock()
}

// Current returns the active query, or nil when none has been published.
func (s *ExecutorService) Current() *models.GeneratedQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Execute dispatches the active query against the active connection.
// userCollection fills the last slot of the collection-resolution chain
// for document-store queries; pass "" when the user supplied nothing.
//
// ErrMissingCollection is returned, with no gateway call made, when a
// document-store execution cannot resolve a target collection; the
// caller may re-invoke with a user-supplied name.
func (s *ExecutorService) Execute(ctx context.Context, userCollection string) (*models.ResultSet, error) {
	conn := s.connections.Active()
	if conn == nil || !conn.RAGReady {
		return nil, ErrNotReady
	}

	current := s.Current()
	if current == nil || current.Query == "" {
		return nil, ErrNoQuery
	}

	payload, dialect, err := buildExecutePayload(conn, current, userCollection)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"type":        conn.Kind,
		"dialect":     dialect,
		"database":    payload.DatabaseName,
		"collection":  payload.CollectionName,
		"aggregation": payload.IsAggregation,
	}).Info("Dispatching query")

	resp, err := s.gateway.Execute(ctx, *payload)
	if err != nil {
		observability.RecordExecution(string(dialect), "error")
		return nil, classifyExecutionFailure(err)
	}
	if resp.Failed() {
		observability.RecordExecution(string(dialect), "failure")
		return nil, &ExecutionError{Message: augmentAggregationError(resp.FailureMessage())}
	}

	observability.RecordExecution(string(dialect), "success")
	result := NormalizeResult(resp)
	return &result, nil
}

// classifyQuery decides the execution dialect of a query string: a
// successful structured parse (JSON object or array) means document, and
// anything else is SQL text. For object queries the parsed form is
// returned so the caller can inspect and strip keys.
func classifyQuery(query string) (Dialect, map[string]interface{}, interface{}) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(query), &parsed); err != nil {
		return DialectSQL, nil, nil
	}
	switch v := parsed.(type) {
	case map[string]interface{}:
		return DialectDocument, v, v
	case []interface{}:
		return DialectDocument, nil, v
	default:
		return DialectSQL, nil, nil
	}
}

// buildExecutePayload assembles the backend-specific execution request.
// The second return is the detected dialect, for metrics and logging.
func buildExecutePayload(conn *models.Connection, q *models.GeneratedQuery, userCollection string) (*bridge.ExecutePayload, Dialect, error) {
	dialect, doc, parsed := classifyQuery(q.Query)

	if conn.Kind != models.KindMongoDB {
		payload := &bridge.ExecutePayload{
			DatabaseType: string(conn.Kind),
			Query:        q.Query,
			QueryType:    string(DialectSQL),
			DatabaseName: conn.SelectedDatabase,
		}
		return payload, DialectSQL, nil
	}

	// Document-store path. The embedded collection key, if any, names a
	// candidate target and is stripped from the payload sent onward.
	embedded := ""
	if doc != nil {
		if name, ok := doc["collection"].(string); ok {
			embedded = name
			delete(doc, "collection")
		}
		if name, ok := doc["collection_name"].(string); ok {
			if embedded == "" {
				embedded = name
			}
			delete(doc, "collection_name")
		}
	}

	payload := &bridge.ExecutePayload{
		DatabaseType: string(conn.Kind),
		QueryType:    string(DialectDocument),
		DatabaseName: conn.SelectedDatabase,
	}

	// Pipeline-shaped queries must reach the gateway in their literal
	// form; the stripped filter form would lose the operator stages.
	// Text that never parsed as a document is forwarded verbatim too.
	if doc != nil && hasPipelineOperator(doc) {
		payload.Query = q.Query
		payload.IsAggregation = true
	} else if dialect == DialectDocument {
		if doc != nil {
			payload.Query = doc
		} else {
			payload.Query = parsed
		}
	} else {
		payload.Query = q.Query
	}

	payload.CollectionName = resolveCollection(q.Metadata, embedded, userCollection)
	if payload.CollectionName == "" {
		return nil, DialectDocument, ErrMissingCollection
	}

	return payload, DialectDocument, nil
}

// hasPipelineOperator reports whether any top-level key carries the
// pipeline-operator sigil.
func hasPipelineOperator(doc map[string]interface{}) bool {
	for key := range doc {
		if strings.HasPrefix(key, "$") {
			return true
		}
	}
	return false
}

// resolveCollection applies the collection precedence chain: generation
// metadata's primary collection, then the first relevant table, then the
// key embedded in the query, then whatever the user supplied.
func resolveCollection(meta *models.QueryMetadata, embedded, user string) string {
	if meta != nil {
		if meta.PrimaryCollection != "" {
			return meta.PrimaryCollection
		}
		if len(meta.RelevantTables) > 0 && meta.RelevantTables[0] != "" {
			return meta.RelevantTables[0]
		}
	}
	if embedded != "" {
		return embedded
	}
	return user
}

// classifyExecutionFailure converts gateway errors into ExecutionError,
// attaching the aggregation diagnosis when the message matches the known
// incompatibility markers.
func classifyExecutionFailure(err error) error {
	var statusErr *bridge.StatusError
	if errors.As(err, &statusErr) {
		return &ExecutionError{Message: augmentAggregationError(statusErr.Message), Err: err}
	}
	return &ExecutionError{Message: err.Error(), Err: err}
}

func augmentAggregationError(msg string) string {
	if strings.Contains(msg, "unknown top level operator") || strings.Contains(msg, "$count") {
		return msg + "\n\n" + aggregationDiagnosis
	}
	return msg
}
