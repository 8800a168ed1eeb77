package handlers

import (
	"github.com/gofiber/websocket/v2"

	"github.com/querypilot/querypilot-backend/internal/services"
)

// WSHandlers streams conversation thread events to clients
type WSHandlers struct {
	events *services.EventBus
}

// NewWSHandlers creates new websocket handlers
func NewWSHandlers(events *services.EventBus) *WSHandlers {
	return &WSHandlers{events: events}
}

// StreamThreads handles GET /ws/threads: every thread mutation (append,
// loading-message replacement) is pushed as it happens.
func (h *WSHandlers) StreamThreads(c *websocket.Conn) {
	defer c.Close()

	events, cancel := h.events.Subscribe()
	defer cancel()

	// Drain client frames so close/ping frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				// Client disconnected
				return
			}
		case <-done:
			return
		}
	}
}
