package services

import (
	"log/slog"
	"sync"
)

type EventType string

const (
	EventSelection EventType = "selection"
	EventCollapse  EventType = "collapse"
	EventLayout    EventType = "layout"
	EventView      EventType = "view"
	EventRefresh   EventType = "refresh"
	EventIngest    EventType = "trace_ingested"
	EventClosed    EventType = "session_closed"
)

// Event is one store mutation broadcast to subscribed view panels.
type Event struct {
	SessionID string
	Type      EventType
	Data      string // JSON payload
	Timestamp int64
}

// EventBus fans mutation events out to SSE subscribers, keyed by session id.
// Publishing never blocks: a slow subscriber drops events instead of stalling
// the store.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel receiving events for one session and an
// unsubscribe function that closes it.
func (b *EventBus) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subs[sessionID] = append(b.subs[sessionID], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[sessionID]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[sessionID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[sessionID]) == 0 {
			delete(b.subs, sessionID)
		}
	}

	return ch, unsub
}

// Publish sends an event to every subscriber of the session.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "session_id", e.SessionID, "type", e.Type)
		}
	}
}
