package bridge

import (
	"context"
	"encoding/json"

	"github.com/querypilot/querypilot-backend/internal/models"
)

// Inference is the natural-language half of the upstream service: turning
// a prompt into a query, or a question into an answer. It is split out
// from Gateway so the orchestrator can run against either the bridge or
// a direct LLM implementation.
type Inference interface {
	GenerateQuery(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	AnswerQuestion(ctx context.Context, req AnswerRequest) (*AnswerResult, error)
}

// Gateway is the connection and execution half of the upstream service.
type Gateway interface {
	Connect(ctx context.Context, payload ConnectPayload) (*ConnectResult, error)
	PrepareRAG(ctx context.Context, payload PreparePayload) (*PrepareResult, error)
	Execute(ctx context.Context, payload ExecutePayload) (*ExecuteResponse, error)
}

// ConnectPayload is the kind-specific credential payload for /api/connect.
// Only the fields for the given database type are populated.
type ConnectPayload struct {
	DatabaseType     string `json:"database_type"`
	ConnectionString string `json:"connection_string,omitempty"`
	ConnectionKey    string `json:"connection_key,omitempty"`
	Host             string `json:"host,omitempty"`
	Username         string `json:"username,omitempty"`
	Port             int    `json:"port,omitempty"`
	Password         string `json:"password,omitempty"`
}

// ConnectResult is the consumed portion of a successful connect response.
// Document and relational backends report their catalogs under different
// field names; callers take whichever one is populated.
type ConnectResult struct {
	Databases       []string `json:"databases"`
	AvailableTables []string `json:"available_tables"`
	RAGReady        bool     `json:"rag_ready"`
	MySQLVersion    string   `json:"mysql_version"`
}

// PreparePayload asks the gateway to index one database for
// retrieval-augmented querying.
type PreparePayload struct {
	DatabaseType string `json:"database_type"`
	DatabaseName string `json:"database_name"`
}

// PrepareResult is the consumed portion of a prepare response.
type PrepareResult struct {
	RAGReady bool `json:"rag_ready"`
}

// GenerateRequest asks for a query generated from a prompt.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	DatabaseName string `json:"database_name"`
}

// GenerateResult carries whichever query form the service produced: a
// structured document query, plain SQL text, or a bare message.
type GenerateResult struct {
	GeneratedQuery json.RawMessage       `json:"generated_query,omitempty"`
	SQLQuery       string                `json:"sql_query,omitempty"`
	Message        string                `json:"message,omitempty"`
	Metadata       *models.QueryMetadata `json:"metadata,omitempty"`
}

// AnswerRequest asks a free-form question about the prepared database.
type AnswerRequest struct {
	Question     string `json:"question"`
	DatabaseName string `json:"database_name"`
	DatabaseType string `json:"database_type"`
}

// AnswerResult is the consumed portion of an answer response.
type AnswerResult struct {
	Answer  string `json:"answer,omitempty"`
	Message string `json:"message,omitempty"`
}

// ExecutePayload is the execution request built by the dispatcher. Query
// is either a structured value (document filter) or the raw query string
// (SQL, or an aggregation pipeline forwarded verbatim).
type ExecutePayload struct {
	DatabaseType   string      `json:"database_type"`
	Query          interface{} `json:"query"`
	QueryType      string      `json:"query_type"`
	DatabaseName   string      `json:"database_name,omitempty"`
	CollectionName string      `json:"collection_name,omitempty"`
	IsAggregation  bool        `json:"is_aggregation,omitempty"`
}

// ExecuteResponse is the raw shape of an execution reply. Success bodies
// populate Data or Result; failure bodies set Status to "failure" and one
// of the message fields. Normalization happens in the services layer.
type ExecuteResponse struct {
	Status  string                   `json:"status,omitempty"`
	Data    []map[string]interface{} `json:"data,omitempty"`
	Result  []map[string]interface{} `json:"result,omitempty"`
	Count   *int                     `json:"count,omitempty"`
	Error   string                   `json:"error,omitempty"`
	Message string                   `json:"message,omitempty"`
	Detail  string                   `json:"detail,omitempty"`
}

// Failed reports whether the body itself signals a failed execution,
// independent of the transport status code.
func (r *ExecuteResponse) Failed() bool {
	return r.Status == "failure"
}

// FailureMessage resolves the human-readable failure text using the same
// ordered field chain as connect and prepare errors.
func (r *ExecuteResponse) FailureMessage() string {
	return firstNonEmpty(r.Error, r.Message, r.Detail, "Query execution failed")
}
