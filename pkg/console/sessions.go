package console

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
	"github.com/tracedeck/tracedeck/internal/view"
)

type openSessionRequest struct {
	ContextType    string `json:"contextType"`
	ReferenceID    string `json:"referenceId"`
	InitialTraceID string `json:"initialTraceId,omitempty"`
	InitialNodeID  string `json:"initialNodeId,omitempty"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	session, err := s.sessions.Open(r.Context(), services.OpenSessionRequest{
		ContextType:    domain.ContextType(req.ContextType),
		ReferenceID:    req.ReferenceID,
		InitialTraceID: req.InitialTraceID,
		InitialNodeID:  req.InitialNodeID,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, view.BuildContainer(session.Snapshot(), false))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session not found: %s", id))
		return
	}
	s.writeJSON(w, http.StatusOK, view.BuildContainer(session.Snapshot(), false))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.sessions.Get(id); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session not found: %s", id))
		return
	}
	s.sessions.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

type sessionActionRequest struct {
	TraceID       string `json:"traceId,omitempty"`
	NodeID        string `json:"nodeId,omitempty"`
	View          string `json:"view,omitempty"` // collapse target: "hierarchy" or "canvas"
	Direction     string `json:"direction,omitempty"`
	Mode          string `json:"mode,omitempty"`
	ShowInspector *bool  `json:"showInspector,omitempty"`
}

// handleSessionAction applies one store mutation and returns the updated
// container, so callers that don't hold the SSE stream still see the result.
func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request, id, action string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session not found: %s", id))
		return
	}

	var req sessionActionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
			return
		}
	}

	switch action {
	case "select":
		if req.TraceID != "" {
			session.SelectTrace(req.TraceID)
		}
		if req.NodeID != "" || req.TraceID == "" {
			session.SelectNode(req.NodeID, nil)
		}
	case "collapse":
		if req.NodeID == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("node id is required"))
			return
		}
		switch req.View {
		case "canvas":
			session.ToggleCanvasCollapse(req.NodeID)
		case "", "hierarchy":
			session.ToggleHierarchyCollapse(req.NodeID)
		default:
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown collapse view: %q", req.View))
			return
		}
	case "reset":
		session.ResetCanvasView()
	case "layout":
		session.SetLayoutDirection(services.LayoutDirection(req.Direction))
	case "view":
		show := session.Snapshot().ShowInspector
		if req.ShowInspector != nil {
			show = *req.ShowInspector
		}
		session.SetView(services.ViewMode(req.Mode), show)
	case "refresh":
		if err := s.sessions.Refresh(r.Context(), id); err != nil {
			s.logger.Warn("session refresh failed", "session_id", id, "error", err)
		}
	default:
		http.NotFound(w, r)
		return
	}

	s.writeJSON(w, http.StatusOK, view.BuildContainer(session.Snapshot(), false))
}
