// Package console exposes the trace console over HTTP: a JSON API for
// ingesting traces and driving sessions, an SSE stream per session, and the
// HTML page that renders the console.
package console

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tracedeck/tracedeck/internal/core/services"
)

type Server struct {
	logger    *slog.Logger
	collector *services.TraceCollector
	sessions  *services.SessionManager
	bus       *services.EventBus
	spec      []byte // OpenAPI document, rendered as JSON
	page      *template.Template
}

func NewServer(
	logger *slog.Logger,
	collector *services.TraceCollector,
	sessions *services.SessionManager,
	bus *services.EventBus,
) (*Server, error) {
	spec, err := loadSpec()
	if err != nil {
		return nil, fmt.Errorf("loading api document: %w", err)
	}

	page, err := template.New("console").Parse(consolePage)
	if err != nil {
		return nil, fmt.Errorf("parsing console page: %w", err)
	}

	return &Server{
		logger:    logger,
		collector: collector,
		sessions:  sessions,
		bus:       bus,
		spec:      spec,
		page:      page,
	}, nil
}

// Handler returns the http.Handler for the console. Routing is by method and
// path; session sub-resources dispatch on the path segment after the id.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/traces":
			s.handleIngestTrace(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/traces":
			s.handleListTraces(w, r)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/traces/"):
			s.handleGetTrace(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
			s.handleOpenSession(w, r)
		case strings.HasPrefix(r.URL.Path, "/v1/sessions/"):
			s.routeSession(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/traces/view":
			s.handleConsolePage(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/openapi.json":
			s.handleOpenAPI(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/health":
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		default:
			http.NotFound(w, r)
		}
	})
}

// routeSession dispatches /v1/sessions/{id}[/action].
func (s *Server) routeSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleGetSession(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.handleCloseSession(w, r, id)
	case action == "events" && r.Method == http.MethodGet:
		s.handleSessionSSE(w, r, id)
	case r.Method == http.MethodPost:
		s.handleSessionAction(w, r, id, action)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
