// Package services holds the decision logic of the backend: the
// connection registry, the two-thread chat orchestrator, the execution
// dispatcher, the result normalizer, and the in-memory query history.
// Each piece owns its state outright and mutates it by whole-value
// replacement under its own lock.
package services

import (
	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
)

// Services wires the service layer together.
type Services struct {
	Connections *ConnectionService
	Executor    *ExecutorService
	History     *HistoryService
	Chat        *ChatService
	Events      *EventBus
}

// NewServices builds the full service graph on top of the gateway and
// inference implementations.
func NewServices(gateway bridge.Gateway, inference bridge.Inference, log *logrus.Logger) *Services {
	events := NewEventBus()
	connections := NewConnectionService(gateway, log)
	executor := NewExecutorService(gateway, connections, log)
	history := NewHistoryService(executor)
	chat := NewChatService(inference, connections, executor, history, events, log)

	return &Services{
		Connections: connections,
		Executor:    executor,
		History:     history,
		Chat:        chat,
		Events:      events,
	}
}
