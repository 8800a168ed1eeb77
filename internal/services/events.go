package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/querypilot/querypilot-backend/internal/models"
)

// ThreadEventType distinguishes a plain append from the in-place
// replacement that resolves a pending turn.
type ThreadEventType string

const (
	// EventAppend is a new message added to the end of a thread.
	EventAppend ThreadEventType = "append"
	// EventResolve replaces the transient loading message identified by
	// Replaced with the final reply.
	EventResolve ThreadEventType = "resolve"
)

// ThreadEvent is one observable mutation of a conversation thread.
type ThreadEvent struct {
	Type     ThreadEventType    `json:"type"`
	Mode     models.ChatMode    `json:"mode"`
	Message  models.ChatMessage `json:"message"`
	Replaced uuid.UUID          `json:"replaced,omitempty"`
}

// EventBus fans thread events out to WebSocket subscribers. Slow
// subscribers drop events rather than stall the submission path.
type EventBus struct {
	mu   sync.Mutex
	subs map[int]chan ThreadEvent
	next int
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan ThreadEvent)}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the listener goes away.
func (b *EventBus) Subscribe() (<-chan ThreadEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan ThreadEvent, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (b *EventBus) Publish(ev ThreadEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
