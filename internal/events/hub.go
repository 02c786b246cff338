package events

import (
	"sync"
	"time"

	"cryptopath-gateway/internal/models"
)

// Handler receives published session events
type Handler func(models.SessionEvent)

// Hub is an in-process publish/subscribe fan-out for wallet session events.
// It decouples the reconciler from other components that need to observe
// disconnects without direct coupling.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns an unsubscribe function
func (h *Hub) Subscribe(handler Handler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.handlers, id)
		h.mu.Unlock()
	}
}

// Publish delivers an event to all current subscribers. Delivery is
// synchronous and in-process; handlers must not block.
func (h *Hub) Publish(eventType, account string) {
	event := models.SessionEvent{
		Type:      eventType,
		Account:   account,
		Timestamp: time.Now().UTC(),
	}

	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}
