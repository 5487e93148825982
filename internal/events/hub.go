// Package events provides the in-memory event hub feeding live alert streams.
package events

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultBufferSize is the default per-subscriber channel buffer.
	DefaultBufferSize = 64
)

// Type identifies the event category published by the hub.
type Type string

const (
	// TypeAlertFired is emitted when a lead reminder fires.
	TypeAlertFired Type = "alert_fired"
	// TypeLeadUpdated is emitted after a lead changes outside the alert path.
	TypeLeadUpdated Type = "lead_updated"
)

// Event is the normalized payload emitted to user-scoped subscribers.
type Event struct {
	Type   Type            `json:"type"`
	UserID string          `json:"user_id"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Publisher publishes events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Subscriber subscribes to user-scoped events.
type Subscriber interface {
	Subscribe(userID string, buffer int) (string, <-chan Event, func())
}

// Hub is an in-process pub/sub dispatcher for user-scoped events.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		streams: map[string]map[string]chan Event{},
	}
}

// Publish broadcasts one event to all subscribers of the event's user.
// Slow subscribers are dropped in a non-blocking way.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.streams[userID] {
		select {
		case ch <- event:
		default:
			// Drop if receiver is slow to avoid blocking the delivery path.
		}
	}
}

// Subscribe registers one subscriber under a user ID.
// It returns a stream ID, read-only event channel, and a cancel function.
func (h *Hub) Subscribe(userID string, buffer int) (string, <-chan Event, func()) {
	if h == nil {
		ch := make(chan Event)
		close(ch)
		return "", ch, func() {}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		ch := make(chan Event)
		close(ch)
		return "", ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	streamID := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	streams, ok := h.streams[userID]
	if !ok {
		streams = map[string]chan Event{}
		h.streams[userID] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			streams := h.streams[userID]
			if streams != nil {
				if current, ok := streams[streamID]; ok {
					delete(streams, streamID)
					close(current)
				}
				if len(streams) == 0 {
					delete(h.streams, userID)
				}
			}
			h.mu.Unlock()
		})
	}

	return streamID, ch, cancel
}
