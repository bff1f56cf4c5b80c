package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tracedeck/tracedeck/internal/core/domain"
)

// LayoutDirection controls which axis the canvas uses for rank progression.
type LayoutDirection string

const (
	LayoutHorizontal LayoutDirection = "horizontal"
	LayoutVertical   LayoutDirection = "vertical"
)

// ViewMode selects which panels the container lays out.
type ViewMode string

const (
	ViewModeSplit     ViewMode = "split"
	ViewModeCanvas    ViewMode = "canvas"
	ViewModeHierarchy ViewMode = "hierarchy"
)

// SessionScope identifies what the session's traces belong to.
type SessionScope struct {
	ContextType domain.ContextType
	ReferenceID string
}

// Session is the single source of truth for one tracing session: which trace
// and node are selected, the cached selection path, and the two independent
// collapse sets (hierarchy and canvas fold subtrees independently of each
// other). All mutations go through the methods below; each one is atomic and
// is broadcast on the event bus so every subscribed panel observes the same
// state. Lookup misses never error: a stale trace id falls back to the first
// trace, a stale node id falls back to root selection.
type Session struct {
	mu     sync.RWMutex
	id     string
	scope  SessionScope
	logger *slog.Logger
	bus    *EventBus

	traces          []domain.Trace
	selectedTraceID string
	selectedNodeID  string // "" = the trace root itself is selected
	selectionPath   []string

	hierarchyCollapsed map[string]struct{}
	canvasCollapsed    map[string]struct{}

	layoutDirection LayoutDirection
	viewMode        ViewMode
	showInspector   bool

	fetchErr   string
	closed     bool
	lastAccess time.Time
}

func newSession(id string, scope SessionScope, logger *slog.Logger, bus *EventBus, traces []domain.Trace) *Session {
	return &Session{
		id:                 id,
		scope:              scope,
		logger:             logger,
		bus:                bus,
		traces:             traces,
		hierarchyCollapsed: make(map[string]struct{}),
		canvasCollapsed:    make(map[string]struct{}),
		layoutDirection:    LayoutHorizontal,
		viewMode:           ViewModeSplit,
		showInspector:      true,
		lastAccess:         time.Now(),
	}
}

// ID returns the session handle.
func (s *Session) ID() string { return s.id }

// Scope returns what the session's traces belong to.
func (s *Session) Scope() SessionScope { return s.scope }

// SelectTrace makes the given trace current and always resets node selection
// to root, so no view can observe a node belonging to a different trace.
func (s *Session) SelectTrace(traceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedTraceID = traceID
	s.selectedNodeID = ""
	s.selectionPath = nil
	s.touch()
	s.publish(EventSelection, map[string]any{"traceId": traceID, "nodeId": nil})
}

// SelectNode selects a node within the current trace. An empty id selects the
// trace root. When the caller already knows the root-to-node path (e.g. it
// just traversed the tree) it may pass it to skip the redundant search;
// otherwise the path is derived with a pre-order search. An id that cannot be
// found degrades to root selection.
func (s *Session) SelectNode(nodeID string, path []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case nodeID == "":
		s.selectedNodeID = ""
		s.selectionPath = nil
	case path != nil:
		s.selectedNodeID = nodeID
		s.selectionPath = append([]string(nil), path...)
	default:
		tr := s.selectedTraceLocked()
		if tr == nil {
			s.selectedNodeID = ""
			s.selectionPath = nil
			break
		}
		if _, derived, ok := domain.FindNodeByID(tr.Nodes, nodeID); ok {
			s.selectedNodeID = nodeID
			s.selectionPath = derived
		} else {
			s.logger.Debug("selected node not in trace, degrading to root", "session_id", s.id, "node_id", nodeID)
			s.selectedNodeID = ""
			s.selectionPath = nil
		}
	}
	s.touch()
	s.publish(EventSelection, map[string]any{"nodeId": s.selectedNodeID})
}

// ToggleHierarchyCollapse flips the node's membership in the hierarchy view's
// collapse set. Toggling twice restores the original state.
func (s *Session) ToggleHierarchyCollapse(nodeID string) {
	s.toggleCollapse(s.hierarchyCollapsed, "hierarchy", nodeID)
}

// ToggleCanvasCollapse flips the node's membership in the canvas view's
// collapse set, independent of the hierarchy set.
func (s *Session) ToggleCanvasCollapse(nodeID string) {
	s.toggleCollapse(s.canvasCollapsed, "canvas", nodeID)
}

func (s *Session) toggleCollapse(set map[string]struct{}, view, nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := set[nodeID]; ok {
		delete(set, nodeID)
	} else {
		set[nodeID] = struct{}{}
	}
	s.touch()
	s.publish(EventCollapse, map[string]any{"view": view, "nodeId": nodeID})
}

// ResetCanvasView clears the canvas collapse set and tells subscribers to
// reset zoom/pan to the fitted default. Selection is untouched.
func (s *Session) ResetCanvasView() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canvasCollapsed = make(map[string]struct{})
	s.touch()
	s.publish(EventLayout, map[string]any{"reset": true})
}

// SetLayoutDirection switches the canvas between horizontal and vertical rank
// progression. Unknown values are ignored.
func (s *Session) SetLayoutDirection(dir LayoutDirection) {
	if dir != LayoutHorizontal && dir != LayoutVertical {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layoutDirection = dir
	s.touch()
	s.publish(EventLayout, map[string]any{"direction": string(dir)})
}

// SetView updates the container's view mode and inspector visibility.
// An empty mode keeps the current one.
func (s *Session) SetView(mode ViewMode, showInspector bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == ViewModeSplit || mode == ViewModeCanvas || mode == ViewModeHierarchy {
		s.viewMode = mode
	}
	s.showInspector = showInspector
	s.touch()
	s.publish(EventView, map[string]any{"mode": string(mode), "showInspector": showInspector})
}

// ReplaceTraces swaps in a freshly fetched trace list (or a fetch error).
// Selection referring to ids that no longer exist degrades: a missing trace
// falls back to the first trace, a missing node falls back to root.
func (s *Session) ReplaceTraces(traces []domain.Trace, fetchErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces = traces
	if fetchErr != nil {
		s.fetchErr = fetchErr.Error()
	} else {
		s.fetchErr = ""
	}

	if s.selectedTraceLocked() == nil {
		s.selectedTraceID = ""
		s.selectedNodeID = ""
		s.selectionPath = nil
	} else if s.selectedNodeID != "" {
		tr := s.selectedTraceLocked()
		if _, path, ok := domain.FindNodeByID(tr.Nodes, s.selectedNodeID); ok {
			s.selectionPath = path
		} else {
			s.selectedNodeID = ""
			s.selectionPath = nil
		}
	}
	s.touch()
	s.publish(EventRefresh, map[string]any{"traces": len(traces), "error": s.fetchErr})
}

// SelectedTrace returns the current trace, falling back to the first trace
// when the selected id is unset or missing. Nil only when there are no traces.
func (s *Session) SelectedTrace() *domain.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedTraceLocked()
}

// selectedTraceLocked resolves the selection under the caller's lock. The
// returned pointer aliases the session's trace slice; callers treat it as
// read-only.
func (s *Session) selectedTraceLocked() *domain.Trace {
	if len(s.traces) == 0 {
		return nil
	}
	if s.selectedTraceID != "" {
		for i := range s.traces {
			if s.traces[i].ID == s.selectedTraceID {
				return &s.traces[i]
			}
		}
	}
	return &s.traces[0]
}

// SelectedNode returns the selected node, or nil when the root is selected
// or the node id is stale.
func (s *Session) SelectedNode() *domain.TraceNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedNodeID == "" {
		return nil
	}
	tr := s.selectedTraceLocked()
	if tr == nil {
		return nil
	}
	node, _, _ := domain.FindNodeByID(tr.Nodes, s.selectedNodeID)
	return node
}

// SelectionPath returns the cached root-to-node id chain; empty for root.
func (s *Session) SelectionPath() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selectionPath...)
}

// FetchError returns the upstream fetch failure surfaced to the container,
// or "" when the last fetch succeeded.
func (s *Session) FetchError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchErr
}

// SessionState is an immutable snapshot handed to the view builders. The
// trace slice aliases the session's data and is read-only by convention; the
// collapse sets are copies.
type SessionState struct {
	ID              string
	Traces          []domain.Trace
	SelectedTraceID string // resolved: always a present trace id when Traces is non-empty
	SelectedNodeID  string // "" = root selected
	SelectionPath   []string

	HierarchyCollapsed map[string]struct{}
	CanvasCollapsed    map[string]struct{}

	LayoutDirection LayoutDirection
	ViewMode        ViewMode
	ShowInspector   bool

	FetchError string
}

// SelectedTrace resolves the snapshot's current trace.
func (st *SessionState) SelectedTrace() *domain.Trace {
	for i := range st.Traces {
		if st.Traces[i].ID == st.SelectedTraceID {
			return &st.Traces[i]
		}
	}
	if len(st.Traces) > 0 {
		return &st.Traces[0]
	}
	return nil
}

// Snapshot captures a consistent view of the session for rendering.
func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolvedTraceID := ""
	if tr := s.selectedTraceLocked(); tr != nil {
		resolvedTraceID = tr.ID
	}

	return SessionState{
		ID:                 s.id,
		Traces:             s.traces,
		SelectedTraceID:    resolvedTraceID,
		SelectedNodeID:     s.selectedNodeID,
		SelectionPath:      append([]string(nil), s.selectionPath...),
		HierarchyCollapsed: copySet(s.hierarchyCollapsed),
		CanvasCollapsed:    copySet(s.canvasCollapsed),
		LayoutDirection:    s.layoutDirection,
		ViewMode:           s.viewMode,
		ShowInspector:      s.showInspector,
		FetchError:         s.fetchErr,
	}
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// touch records activity for idle eviction. Caller holds the lock.
func (s *Session) touch() { s.lastAccess = time.Now() }

func (s *Session) lastTouched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// publish broadcasts one mutation. Called with the session lock held so event
// order on the bus matches mutation order; safe because Publish never blocks.
func (s *Session) publish(typ EventType, data map[string]any) {
	if s.bus == nil {
		return
	}
	payload, _ := json.Marshal(data)
	s.bus.Publish(Event{
		SessionID: s.id,
		Type:      typ,
		Data:      string(payload),
		Timestamp: time.Now().UnixMilli(),
	})
}
