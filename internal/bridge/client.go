// Package bridge talks to the external inference/execution gateway: the
// service that holds the real database handles, indexes schemas for
// retrieval, generates queries from prompts, and runs them. Everything
// here is a plain request/response exchange; the gateway is an opaque
// collaborator.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/observability"
)

const defaultTimeout = 120 * time.Second

// Client is the HTTP implementation of both Gateway and Inference.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// Connect opens a backend connection on the gateway.
func (c *Client) Connect(ctx context.Context, payload ConnectPayload) (*ConnectResult, error) {
	var result ConnectResult
	if err := c.post(ctx, "/api/connect", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PrepareRAG indexes one database for retrieval-augmented querying.
func (c *Client) PrepareRAG(ctx context.Context, payload PreparePayload) (*PrepareResult, error) {
	var result PrepareResult
	if err := c.post(ctx, "/api/prepare_rag", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateQuery turns a prompt into a query against the prepared database.
func (c *Client) GenerateQuery(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var result GenerateResult
	if err := c.post(ctx, "/api/chat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnswerQuestion answers a free-form question about the prepared database.
func (c *Client) AnswerQuestion(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	var result AnswerResult
	if err := c.post(ctx, "/api/conversation", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Execute runs a dispatched query. Body-level failures (status "failure"
// with a 200) are returned as a populated response, not an error; the
// dispatcher owns that classification.
func (c *Client) Execute(ctx context.Context, payload ExecutePayload) (*ExecuteResponse, error) {
	var result ExecuteResponse
	if err := c.post(ctx, "/api/execute", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	start := time.Now()
	err := c.doPost(ctx, path, payload, out)
	observability.ObserveUpstream(path, start, err)
	return err
}

func (c *Client) doPost(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isUnreachable(err) {
			c.log.WithError(err).WithField("path", path).Warn("Gateway unreachable")
			return &StatusError{Message: err.Error(), Unreachable: true}
		}
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Gateway request rejected")
		return &StatusError{Code: resp.StatusCode, Message: extractMessage(respBody)}
	}

	if len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Body: truncate(string(respBody), 100), Err: err}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
