package session

import (
	"context"
	"slices"
	"sync"
)

// EventType names an auth state change.
type EventType string

const (
	EventSignedUp  EventType = "signed_up"
	EventSignedOut EventType = "signed_out"
)

// Event is delivered to every subscribed listener.
type Event struct {
	Type     EventType
	UserID   string
	Identity *Identity
}

// Listener reacts to auth events. It runs on the publisher's goroutine.
type Listener func(ctx context.Context, ev Event)

// Hub is the process-wide subscription point for auth changes.
type Hub struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[uint64]Listener
}

// NewHub creates a hub with no listeners.
func NewHub() *Hub {
	return &Hub{listeners: make(map[uint64]Listener)}
}

// Subscribe registers l and returns a func that removes it. Calling the
// returned func more than once is safe.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.listeners[id] = l
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Publish calls each listener in subscription order.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	h.mu.RLock()
	ids := make([]uint64, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	slices.Sort(ids)

	for _, id := range ids {
		h.mu.RLock()
		l, ok := h.listeners[id]
		h.mu.RUnlock()
		if ok {
			l(ctx, ev)
		}
	}
}

// Len reports how many listeners are subscribed.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
