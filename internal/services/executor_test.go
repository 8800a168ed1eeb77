package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/models"
)

// readyExecutor wires an executor to a prepared, active connection of the
// given kind so Execute reaches the dispatch path.
func readyExecutor(t *testing.T, gw *fakeGateway, kind models.BackendKind, database string) *ExecutorService {
	t.Helper()

	conns := NewConnectionService(gw, testLogger())
	req := models.ConnectRequest{Name: "test", Kind: kind}
	switch kind {
	case models.KindMySQL:
		req.Host = "127.0.0.1"
		req.Username = "root"
		req.Port = "3306"
		req.Password = "secret"
	case models.KindSupabase:
		req.ConnectionString = "https://x"
		req.AnonKey = "k"
	default:
		req.ConnectionString = "mongodb://h"
	}

	conn, err := conns.Connect(context.Background(), req)
	require.NoError(t, err)
	_, err = conns.Prepare(context.Background(), conn.ID, database)
	require.NoError(t, err)
	_, err = conns.SetActive(conn.ID)
	require.NoError(t, err)

	return NewExecutorService(gw, conns, testLogger())
}

func TestExecuteGuards(t *testing.T) {
	gw := &fakeGateway{}

	t.Run("no active connection", func(t *testing.T) {
		exec := NewExecutorService(gw, NewConnectionService(gw, testLogger()), testLogger())
		exec.SetQuery(models.GeneratedQuery{Query: "SELECT 1;"})

		_, err := exec.Execute(context.Background(), "")
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Zero(t, gw.executeCalls)
	})

	t.Run("no published query", func(t *testing.T) {
		exec := readyExecutor(t, gw, models.KindMySQL, "inventory")

		_, err := exec.Execute(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoQuery)
		assert.Zero(t, gw.executeCalls)
	})
}

func TestExecuteSQLDialect(t *testing.T) {
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{
		Status: "success",
		Data:   []map[string]interface{}{{"id": float64(1)}},
	}}
	exec := readyExecutor(t, gw, models.KindMySQL, "inventory")
	exec.SetQuery(models.GeneratedQuery{Query: "SELECT * FROM products;"})

	result, err := exec.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "mysql", gw.lastExecute.DatabaseType)
	assert.Equal(t, "sql", gw.lastExecute.QueryType)
	assert.Equal(t, "SELECT * FROM products;", gw.lastExecute.Query)
	assert.Equal(t, "inventory", gw.lastExecute.DatabaseName)
	assert.Empty(t, gw.lastExecute.CollectionName)

	assert.Equal(t, 1, result.Count)
}

func TestExecuteDocumentFilterStripsCollection(t *testing.T) {
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{Status: "success"}}
	exec := readyExecutor(t, gw, models.KindMongoDB, "shop")
	exec.SetQuery(models.GeneratedQuery{Query: `{"collection": "users", "name": "Bob"}`})

	_, err := exec.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "mongodb", gw.lastExecute.QueryType)
	assert.Equal(t, "users", gw.lastExecute.CollectionName)
	assert.False(t, gw.lastExecute.IsAggregation)

	sent, ok := gw.lastExecute.Query.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"name": "Bob"}, sent, "collection key must be stripped from the forwarded filter")
}

func TestExecuteAggregationForwardsOriginalText(t *testing.T) {
	raw := `{"$group": {"_id": "$city", "total": {"$sum": 1}}}`
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{Status: "success"}}
	exec := readyExecutor(t, gw, models.KindMongoDB, "shop")
	exec.SetQuery(models.GeneratedQuery{Query: raw, Metadata: &models.QueryMetadata{PrimaryCollection: "orders"}})

	_, err := exec.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, gw.lastExecute.IsAggregation)
	assert.Equal(t, raw, gw.lastExecute.Query, "pipeline queries are forwarded verbatim")
	assert.Equal(t, "orders", gw.lastExecute.CollectionName)
}

func TestCollectionPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		meta     *models.QueryMetadata
		user     string
		want     string
		wantErr  error
		wantCall bool
	}{
		{
			name:     "metadata primary wins over embedded",
			query:    `{"collection": "embedded", "name": "Bob"}`,
			meta:     &models.QueryMetadata{PrimaryCollection: "primary"},
			want:     "primary",
			wantCall: true,
		},
		{
			name:     "relevant tables before embedded",
			query:    `{"collection": "embedded"}`,
			meta:     &models.QueryMetadata{RelevantTables: []string{"relevant", "other"}},
			want:     "relevant",
			wantCall: true,
		},
		{
			name:     "embedded before user",
			query:    `{"collection_name": "embedded"}`,
			user:     "user-supplied",
			want:     "embedded",
			wantCall: true,
		},
		{
			name:     "user fills the last slot",
			query:    `{"name": "Bob"}`,
			user:     "user-supplied",
			want:     "user-supplied",
			wantCall: true,
		},
		{
			name:    "nothing resolves",
			query:   `{"name": "Bob"}`,
			wantErr: ErrMissingCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{Status: "success"}}
			exec := readyExecutor(t, gw, models.KindMongoDB, "shop")
			callsBefore := gw.executeCalls
			exec.SetQuery(models.GeneratedQuery{Query: tt.query, Metadata: tt.meta})

			_, err := exec.Execute(context.Background(), tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, callsBefore, gw.executeCalls, "unresolvable collection must not reach the gateway")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, gw.lastExecute.CollectionName)
		})
	}
}

func TestExecuteDocumentBackendForwardsUnparsedText(t *testing.T) {
	// Text that is not a JSON document still dispatches through the
	// document path for a mongodb connection, forwarded verbatim.
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{Status: "success"}}
	exec := readyExecutor(t, gw, models.KindMongoDB, "shop")
	exec.SetQuery(models.GeneratedQuery{Query: "db.users.find({})"})

	_, err := exec.Execute(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "mongodb", gw.lastExecute.QueryType)
	assert.Equal(t, "db.users.find({})", gw.lastExecute.Query)
	assert.False(t, gw.lastExecute.IsAggregation)
	assert.Equal(t, "users", gw.lastExecute.CollectionName)
}

func TestExecuteNonDocumentBackendKeepsQueryText(t *testing.T) {
	// A JSON-shaped query against a relational backend still goes through
	// the SQL path untouched.
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{Status: "success"}}
	exec := readyExecutor(t, gw, models.KindSupabase, "public")
	exec.SetQuery(models.GeneratedQuery{Query: `{"collection": "users"}`})

	_, err := exec.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "sql", gw.lastExecute.QueryType)
	assert.Equal(t, `{"collection": "users"}`, gw.lastExecute.Query)
	assert.Empty(t, gw.lastExecute.CollectionName)
}

func TestExecuteFailureBody(t *testing.T) {
	gw := &fakeGateway{executeResp: &bridge.ExecuteResponse{
		Status: "failure",
		Error:  "unknown top level operator: $count",
	}}
	exec := readyExecutor(t, gw, models.KindMongoDB, "shop")
	exec.SetQuery(models.GeneratedQuery{Query: `{"name": "Bob"}`, Metadata: &models.QueryMetadata{PrimaryCollection: "users"}})

	_, err := exec.Execute(context.Background(), "")

	var eerr *ExecutionError
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Message, "unknown top level operator")
	assert.Contains(t, eerr.Message, "aggregation pipeline", "operator failures carry the routing diagnosis")
}

func TestExecuteTransportFailure(t *testing.T) {
	gw := &fakeGateway{executeErr: &bridge.StatusError{Code: 500, Message: "execution failed"}}
	exec := readyExecutor(t, gw, models.KindMySQL, "inventory")
	exec.SetQuery(models.GeneratedQuery{Query: "SELECT 1;"})

	_, err := exec.Execute(context.Background(), "")

	var eerr *ExecutionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "execution failed", eerr.Message)

	var serr *bridge.StatusError
	assert.ErrorAs(t, err, &serr, "the underlying gateway error stays reachable")
}

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Dialect
	}{
		{"sql text", "SELECT * FROM t;", DialectSQL},
		{"json object", `{"age": {"$gt": 30}}`, DialectDocument},
		{"json array", `[{"$match": {"a": 1}}]`, DialectDocument},
		{"bare number is not a document", "42", DialectSQL},
		{"sql with braces inside", "SELECT '{\"a\":1}' FROM t;", DialectSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, _, _ := classifyQuery(tt.query)
			assert.Equal(t, tt.want, dialect)
		})
	}
}
