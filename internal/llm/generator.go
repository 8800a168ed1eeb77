// Package llm is the direct-inference fallback: when no bridge inference
// endpoint is configured, prompts are sent straight to an OpenAI-compatible
// model and shaped into the same results the bridge would return.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
)

const (
	generateSystemPrompt = "You are a database query generator. Given a request, respond with only the query itself: plain SQL for relational databases, or a single JSON document filter for MongoDB. No explanations, no markdown fences."
	answerSystemPrompt   = "You are a data assistant. Answer the user's question about their database clearly and concisely."

	defaultModel = "gpt-4o-mini"
)

// Generator implements bridge.Inference against an OpenAI-compatible API.
type Generator struct {
	client *openai.Client
	model  string
	log    *logrus.Logger
}

// NewGenerator creates a direct generator. BaseURL is optional and allows
// pointing at a local OpenAI-compatible server.
func NewGenerator(apiKey, baseURL, model string, log *logrus.Logger) (*Generator, error) {
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("OpenAI API key is required for direct inference")
	}
	if model == "" {
		model = defaultModel
	}

	var client *openai.Client
	if baseURL != "" {
		key := apiKey
		if key == "" {
			key = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(key)
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	return &Generator{client: client, model: model, log: log}, nil
}

// GenerateQuery asks the model for a query and shapes the reply like a
// bridge generation response: structured document queries land in
// GeneratedQuery, everything else in SQLQuery.
func (g *Generator) GenerateQuery(ctx context.Context, req bridge.GenerateRequest) (*bridge.GenerateResult, error) {
	content, err := g.complete(ctx, generateSystemPrompt,
		fmt.Sprintf("Database: %s\nRequest: %s", req.DatabaseName, req.Prompt))
	if err != nil {
		return nil, err
	}

	content = stripFences(content)
	if json.Valid([]byte(content)) && (strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")) {
		return &bridge.GenerateResult{GeneratedQuery: json.RawMessage(content)}, nil
	}
	return &bridge.GenerateResult{SQLQuery: content}, nil
}

// AnswerQuestion answers a free-form question directly with the model.
func (g *Generator) AnswerQuestion(ctx context.Context, req bridge.AnswerRequest) (*bridge.AnswerResult, error) {
	content, err := g.complete(ctx, answerSystemPrompt,
		fmt.Sprintf("Database: %s (%s)\nQuestion: %s", req.DatabaseName, req.DatabaseType, req.Question))
	if err != nil {
		return nil, err
	}
	return &bridge.AnswerResult{Answer: content}, nil
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		g.log.WithError(err).Warn("Direct inference call failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// stripFences removes a surrounding markdown code fence if the model
// added one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
