package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/core/domain"
)

// TraceSource supplies the traces a session visualizes.
type TraceSource interface {
	TracesFor(ctx context.Context, contextType domain.ContextType, referenceID string) ([]domain.Trace, error)
}

// OpenSessionRequest carries everything needed to start a session.
type OpenSessionRequest struct {
	ContextType    domain.ContextType
	ReferenceID    string
	InitialTraceID string
	InitialNodeID  string
}

// SessionManager owns the live sessions: it opens them against a trace
// source, hands them out by id, refreshes them, and evicts the ones nobody
// has touched within the TTL.
type SessionManager struct {
	logger *slog.Logger
	source TraceSource
	bus    *EventBus
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(logger *slog.Logger, source TraceSource, bus *EventBus, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionManager{
		logger:   logger,
		source:   source,
		bus:      bus,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session, fetches its traces and applies the initial
// selection. A fetch failure still yields a usable session: the error is
// surfaced through the session state instead of aborting.
func (m *SessionManager) Open(ctx context.Context, req OpenSessionRequest) (*Session, error) {
	if !req.ContextType.Valid() {
		return nil, fmt.Errorf("invalid context type: %q", req.ContextType)
	}
	if req.ReferenceID == "" {
		return nil, fmt.Errorf("reference id is required")
	}

	scope := SessionScope{ContextType: req.ContextType, ReferenceID: req.ReferenceID}
	id := uuid.New().String()

	traces, err := m.source.TracesFor(ctx, req.ContextType, req.ReferenceID)
	s := newSession(id, scope, m.logger, m.bus, traces)
	if err != nil {
		m.logger.Warn("trace fetch failed on session open", "session_id", id, "reference_id", req.ReferenceID, "error", err)
		s.fetchErr = err.Error()
	}

	if req.InitialTraceID != "" {
		s.SelectTrace(req.InitialTraceID)
	}
	if req.InitialNodeID != "" {
		s.SelectNode(req.InitialNodeID, nil)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", id, "context_type", req.ContextType, "reference_id", req.ReferenceID, "traces", len(traces))
	return s, nil
}

// Get returns the session by id, or false when it is unknown or closed.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.isClosed() {
		return nil, false
	}
	return s, true
}

// Close ends a session and tells its subscribers to disconnect.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.markClosed()
	m.bus.Publish(Event{
		SessionID: id,
		Type:      EventClosed,
		Data:      "{}",
		Timestamp: time.Now().UnixMilli(),
	})
	m.logger.Info("session closed", "session_id", id)
}

// Refresh re-fetches the session's traces. A session closed while the fetch
// was in flight discards the result rather than resurrecting stale state.
func (m *SessionManager) Refresh(ctx context.Context, id string) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}

	traces, err := m.source.TracesFor(ctx, s.scope.ContextType, s.scope.ReferenceID)
	if s.isClosed() {
		m.logger.Debug("discarding refresh for closed session", "session_id", id)
		return nil
	}
	s.ReplaceTraces(traces, err)
	if err != nil {
		return fmt.Errorf("refreshing traces: %w", err)
	}
	return nil
}

// Run evicts idle sessions until the context is cancelled.
func (m *SessionManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.lastTouched().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		m.logger.Info("evicting idle session", "session_id", id)
		m.Close(id)
	}
}
