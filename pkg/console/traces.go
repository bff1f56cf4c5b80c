package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

// handleIngestTrace accepts one trace from an agent runtime. Re-posting the
// same trace id replaces the stored trace, so runtimes can stream updates for
// long-running executions.
func (s *Server) handleIngestTrace(w http.ResponseWriter, r *http.Request) {
	var trace domain.Trace
	if err := json.NewDecoder(r.Body).Decode(&trace); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding trace: %w", err))
		return
	}

	stored, err := s.collector.Ingest(r.Context(), &trace)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":        stored.ID,
		"nodeCount": stored.NodeCount(),
	})
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.TraceFilter{
		ContextType: domain.ContextType(q.Get("contextType")),
		ReferenceID: q.Get("referenceId"),
		TenantID:    q.Get("tenantId"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		filter.Limit = n
	}

	summaries, err := s.collector.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list traces", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summaries == nil {
		summaries = []domain.TraceSummary{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"traces": summaries,
		"count":  len(summaries),
	})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/traces/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	trace, err := s.collector.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trace)
}
