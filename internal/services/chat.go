package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/models"
	"github.com/querypilot/querypilot-backend/internal/observability"
)

// Fixed assistant texts. The guidance message is the only reply a
// submission gets while no prepared connection is active, and it is
// produced without any upstream call.
const (
	sqlGreeting  = "Hello! I'm your SQL assistant. Describe what data you want to retrieve and I'll generate the perfect SQL query for you."
	chatGreeting = "Hello! I'm your chat assistant. Ask me questions about your data and I'll provide detailed answers."

	sqlLoadingText  = "Generating SQL query..."
	chatLoadingText = "Looking into your data..."

	notReadyGuidance = "Please connect to a database and prepare RAG before asking questions."
	apologyMessage   = "Sorry, I encountered an error while processing your request. Please try again."
	fallbackAnswer   = "Response received"
	noQueryGenerated = "No query generated"
)

// ChatService owns the two independent conversation threads and decides,
// per submission, which upstream capability to invoke and how to shape
// its reply. Switching modes never clears either thread.
type ChatService struct {
	inference   bridge.Inference
	connections *ConnectionService
	executor    *ExecutorService
	history     *HistoryService
	events      *EventBus
	log         *logrus.Logger

	mu       sync.Mutex
	threads  map[models.ChatMode][]models.ChatMessage
	inflight map[models.ChatMode]bool
}

// NewChatService creates the orchestrator with both threads seeded with
// their assistant greeting.
func NewChatService(inference bridge.Inference, connections *ConnectionService, executor *ExecutorService, history *HistoryService, events *EventBus, log *logrus.Logger) *ChatService {
	now := time.Now()
	return &ChatService{
		inference:   inference,
		connections: connections,
		executor:    executor,
		history:     history,
		events:      events,
		log:         log,
		threads: map[models.ChatMode][]models.ChatMessage{
			models.ModeSQL: {{
				ID:        uuid.New(),
				Role:      models.RoleAssistant,
				Content:   sqlGreeting,
				Timestamp: now,
			}},
			models.ModeChat: {{
				ID:        uuid.New(),
				Role:      models.RoleAssistant,
				Content:   chatGreeting,
				Timestamp: now,
			}},
		},
		inflight: map[models.ChatMode]bool{},
	}
}

// Messages returns a copy of the thread for the given mode.
func (s *ChatService) Messages(mode models.ChatMode) ([]models.ChatMessage, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.threads[mode]
	out := make([]models.ChatMessage, len(thread))
	copy(out, thread)
	return out, nil
}

// pendingTurn tracks one submission from the moment its transient
// loading message is appended until it is resolved or failed. The
// loading message is always replaced in place, never left behind.
type pendingTurn struct {
	mode      models.ChatMode
	loadingID uuid.UUID
}

// Submit runs one user turn through the active mode's capability. The
// returned message is the final assistant reply appended to the thread.
// A second submission to a thread with one still pending gets ErrBusy;
// this preserves strict append ordering within each thread.
func (s *ChatService) Submit(ctx context.Context, mode models.ChatMode, input string) (*models.ChatMessage, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	turn, err := s.begin(mode, input)
	if err != nil {
		return nil, err
	}

	conn := s.connections.Active()
	if conn == nil || !conn.RAGReady {
		observability.RecordChatTurn(string(mode), "not_ready")
		msg := s.resolve(turn, models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: notReadyGuidance,
		})
		return &msg, nil
	}

	var reply models.ChatMessage
	if mode == models.ModeChat {
		reply = s.answerTurn(ctx, conn, input)
	} else {
		reply = s.generateTurn(ctx, conn, input)
	}

	msg := s.resolve(turn, reply)
	return &msg, nil
}

// begin appends the user message and the transient loading placeholder,
// refusing if the thread already has a turn in flight.
func (s *ChatService) begin(mode models.ChatMode, input string) (pendingTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[mode] {
		return pendingTurn{}, ErrBusy
	}
	s.inflight[mode] = true

	now := time.Now()
	userMsg := models.ChatMessage{
		ID:        uuid.New(),
		Role:      models.RoleUser,
		Content:   input,
		Timestamp: now,
	}
	loadingText := sqlLoadingText
	if mode == models.ModeChat {
		loadingText = chatLoadingText
	}
	loadingMsg := models.ChatMessage{
		ID:        uuid.New(),
		Role:      models.RoleAssistant,
		Content:   loadingText,
		Timestamp: now,
		Loading:   true,
	}

	thread := s.threads[mode]
	updated := make([]models.ChatMessage, 0, len(thread)+2)
	updated = append(updated, thread...)
	updated = append(updated, userMsg, loadingMsg)
	s.threads[mode] = updated

	s.events.Publish(ThreadEvent{Type: EventAppend, Mode: mode, Message: userMsg})
	s.events.Publish(ThreadEvent{Type: EventAppend, Mode: mode, Message: loadingMsg})

	return pendingTurn{mode: mode, loadingID: loadingMsg.ID}, nil
}

// resolve replaces the turn's loading message with the final reply in a
// single thread mutation and releases the in-flight slot.
func (s *ChatService) resolve(turn pendingTurn, reply models.ChatMessage) models.ChatMessage {
	reply.ID = uuid.New()
	reply.Timestamp = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.threads[turn.mode]
	updated := make([]models.ChatMessage, 0, len(thread))
	for _, msg := range thread {
		if msg.ID != turn.loadingID {
			updated = append(updated, msg)
		}
	}
	updated = append(updated, reply)
	s.threads[turn.mode] = updated
	s.inflight[turn.mode] = false

	s.events.Publish(ThreadEvent{Type: EventResolve, Mode: turn.mode, Message: reply, Replaced: turn.loadingID})

	return reply
}

// answerTurn runs a conversational-mode submission. The reply never
// carries a generated query; conversational mode does not execute.
func (s *ChatService) answerTurn(ctx context.Context, conn *models.Connection, input string) models.ChatMessage {
	result, err := s.inference.AnswerQuestion(ctx, bridge.AnswerRequest{
		Question:     input,
		DatabaseName: conn.TargetDatabase(),
		DatabaseType: string(conn.Kind),
	})
	if err != nil {
		observability.RecordChatTurn(string(models.ModeChat), "error")
		s.log.WithError(err).Warn("Answer call failed")
		return models.ChatMessage{Role: models.RoleAssistant, Content: failureText(err)}
	}

	answer := firstNonEmpty(result.Answer, result.Message, fallbackAnswer)
	structured, caption := extractStructured(answer)

	observability.RecordChatTurn(string(models.ModeChat), "success")
	return models.ChatMessage{
		Role:       models.RoleAssistant,
		Content:    answer,
		Structured: structured,
		Caption:    caption,
	}
}

// generateTurn runs a structured-mode submission: resolve the query via
// the documented precedence, publish it to the execution surface, and
// record it in history.
func (s *ChatService) generateTurn(ctx context.Context, conn *models.Connection, input string) models.ChatMessage {
	result, err := s.inference.GenerateQuery(ctx, bridge.GenerateRequest{
		Prompt:       input,
		DatabaseName: conn.TargetDatabase(),
	})
	if err != nil {
		observability.RecordChatTurn(string(models.ModeSQL), "error")
		s.log.WithError(err).Warn("Generation call failed")
		return models.ChatMessage{Role: models.RoleAssistant, Content: failureText(err)}
	}

	query := resolveGeneratedQuery(result)
	if query == "" {
		observability.RecordChatTurn(string(models.ModeSQL), "empty")
		return models.ChatMessage{Role: models.RoleAssistant, Content: noQueryGenerated}
	}

	s.executor.SetQuery(models.GeneratedQuery{
		Input:    input,
		Query:    query,
		Metadata: result.Metadata,
	})
	s.history.Record(input, query, conn.TargetDatabase(), result.Metadata)

	observability.RecordChatTurn(string(models.ModeSQL), "success")
	return models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: query,
		Query:   query,
	}
}

// resolveGeneratedQuery applies the query extraction precedence: a
// structured query serialized for display, then plain SQL text, then a
// bare message. Empty means nothing usable came back.
func resolveGeneratedQuery(result *bridge.GenerateResult) string {
	if len(result.GeneratedQuery) > 0 && string(result.GeneratedQuery) != "null" {
		var v interface{}
		if err := json.Unmarshal(result.GeneratedQuery, &v); err == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				return string(pretty)
			}
		}
		return string(result.GeneratedQuery)
	}
	if result.SQLQuery != "" {
		return result.SQLQuery
	}
	return result.Message
}

// extractStructured tries to read JSON out of a conversational answer:
// first the whole answer, then the widest brace- or bracket-delimited
// substring, with the surrounding prose kept as a caption.
func extractStructured(answer string) (interface{}, string) {
	var whole interface{}
	if err := json.Unmarshal([]byte(answer), &whole); err == nil {
		switch whole.(type) {
		case map[string]interface{}, []interface{}:
			return whole, ""
		}
	}

	// The delimiter that appears first in the answer is tried first.
	pairs := [][2]string{{"{", "}"}, {"[", "]"}}
	braceAt := strings.Index(answer, "{")
	bracketAt := strings.Index(answer, "[")
	if bracketAt >= 0 && (braceAt < 0 || bracketAt < braceAt) {
		pairs[0], pairs[1] = pairs[1], pairs[0]
	}

	for _, pair := range pairs {
		start := strings.Index(answer, pair[0])
		end := strings.LastIndex(answer, pair[1])
		if start < 0 || end <= start {
			continue
		}
		candidate := answer[start : end+1]
		var embedded interface{}
		if err := json.Unmarshal([]byte(candidate), &embedded); err != nil {
			continue
		}
		caption := strings.TrimSpace(answer[:start] + answer[end+1:])
		return embedded, caption
	}

	return nil, ""
}

// failureText maps an upstream error to the user-visible reply text: an
// application-level rejection surfaces its message, anything transport-
// or decode-shaped gets the fixed apology.
func failureText(err error) string {
	var statusErr *bridge.StatusError
	if errors.As(err, &statusErr) && !statusErr.Unreachable {
		return "Failed: " + statusErr.Message
	}
	return apologyMessage
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
