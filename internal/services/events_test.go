package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot-backend/internal/models"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()

	a, cancelA := bus.Subscribe()
	b, cancelB := bus.Subscribe()
	defer cancelA()
	defer cancelB()

	bus.Publish(ThreadEvent{Type: EventAppend, Mode: models.ModeSQL})

	evt := <-a
	assert.Equal(t, EventAppend, evt.Type)
	evt = <-b
	assert.Equal(t, EventAppend, evt.Type)
}

func TestEventBusCancelClosesChannel(t *testing.T) {
	bus := NewEventBus()

	ch, cancel := bus.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic.
	bus.Publish(ThreadEvent{Type: EventAppend, Mode: models.ModeChat})

	// Double cancel is a no-op.
	cancel()
}

func TestEventBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 40; i++ {
		bus.Publish(ThreadEvent{Type: EventAppend, Mode: models.ModeSQL})
	}

	// The buffer bounds what a stalled subscriber can hold; the extra
	// publishes were dropped rather than blocking the caller.
	require.LessOrEqual(t, len(ch), 16)
	assert.Greater(t, len(ch), 0)
}
