package console

import (
	"fmt"
	"net/http"

	"github.com/tracedeck/tracedeck/internal/core/services"
)

// handleSessionSSE streams store mutations for one session until the client
// disconnects or the session is closed.
func (s *Server) handleSessionSSE(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.sessions.Get(id); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session not found: %s", id))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsub := s.bus.Subscribe(id)
	defer unsub()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
			if evt.Type == services.EventClosed {
				return
			}
		}
	}
}
