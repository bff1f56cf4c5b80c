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

// TraceFilter narrows trace listings.
type TraceFilter struct {
	ContextType domain.ContextType
	ReferenceID string
	TenantID    string
	Limit       int
}

// TraceRepository persists traces beyond the in-memory window.
type TraceRepository interface {
	SaveTrace(ctx context.Context, trace *domain.Trace) error
	ListTraces(ctx context.Context, filter TraceFilter) ([]domain.Trace, error)
	GetTrace(ctx context.Context, id string) (*domain.Trace, error)
}

// TraceCollector ingests traces from agent runtimes and serves them to
// sessions. Recent traces live in a bounded in-memory window so sessions stay
// fast even without a repository; when one is configured, every ingest is
// also persisted asynchronously and lookups fall through to it.
type TraceCollector struct {
	logger    *slog.Logger
	repo      TraceRepository // nil means memory only
	bus       *EventBus
	maxTraces int

	mu     sync.RWMutex
	traces []domain.Trace // newest last; evicted from the front
}

func NewTraceCollector(logger *slog.Logger, repo TraceRepository, bus *EventBus, maxTraces int) *TraceCollector {
	if maxTraces <= 0 {
		maxTraces = 500
	}
	return &TraceCollector{
		logger:    logger,
		repo:      repo,
		bus:       bus,
		maxTraces: maxTraces,
	}
}

// Ingest validates and stores one trace. Missing ids are assigned, duplicate
// node ids are rejected, and timestamps are stamped when absent. Persistence
// happens off the request path.
func (c *TraceCollector) Ingest(ctx context.Context, trace *domain.Trace) (*domain.Trace, error) {
	if trace == nil {
		return nil, fmt.Errorf("trace is required")
	}
	if !trace.ContextType.Valid() {
		return nil, fmt.Errorf("invalid context type: %q", trace.ContextType)
	}
	if trace.ReferenceID == "" {
		return nil, fmt.Errorf("reference id is required")
	}
	if err := domain.ValidateNodeIDs(trace.Nodes); err != nil {
		return nil, fmt.Errorf("invalid trace nodes: %w", err)
	}

	if trace.ID == "" {
		trace.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = now
	}
	trace.UpdatedAt = now

	c.mu.Lock()
	replaced := false
	for i := range c.traces {
		if c.traces[i].ID == trace.ID {
			c.traces[i] = *trace
			replaced = true
			break
		}
	}
	if !replaced {
		c.traces = append(c.traces, *trace)
		if len(c.traces) > c.maxTraces {
			c.traces = c.traces[len(c.traces)-c.maxTraces:]
		}
	}
	c.mu.Unlock()

	if c.repo != nil {
		go c.persist(*trace)
	}

	if c.bus != nil {
		c.bus.Publish(Event{
			SessionID: trace.ReferenceID,
			Type:      EventIngest,
			Data:      fmt.Sprintf(`{"traceId":%q}`, trace.ID),
			Timestamp: now.UnixMilli(),
		})
	}

	c.logger.Info("trace ingested", "trace_id", trace.ID, "context_type", trace.ContextType, "reference_id", trace.ReferenceID, "nodes", trace.NodeCount())
	return trace, nil
}

func (c *TraceCollector) persist(trace domain.Trace) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.repo.SaveTrace(ctx, &trace); err != nil {
		c.logger.Warn("failed to persist trace", "trace_id", trace.ID, "error", err)
	}
}

// TracesFor returns every trace for one reference, newest first, merging the
// in-memory window with the repository. Memory wins on id collisions since it
// may be ahead of an in-flight persist.
func (c *TraceCollector) TracesFor(ctx context.Context, contextType domain.ContextType, referenceID string) ([]domain.Trace, error) {
	c.mu.RLock()
	var out []domain.Trace
	seen := make(map[string]struct{})
	for i := len(c.traces) - 1; i >= 0; i-- {
		tr := c.traces[i]
		if tr.ContextType == contextType && tr.ReferenceID == referenceID {
			out = append(out, tr)
			seen[tr.ID] = struct{}{}
		}
	}
	c.mu.RUnlock()

	if c.repo != nil {
		stored, err := c.repo.ListTraces(ctx, TraceFilter{ContextType: contextType, ReferenceID: referenceID})
		if err != nil {
			return out, fmt.Errorf("listing stored traces: %w", err)
		}
		for _, tr := range stored {
			if _, ok := seen[tr.ID]; !ok {
				out = append(out, tr)
			}
		}
	}
	return out, nil
}

// List returns summaries matching the filter, newest first.
func (c *TraceCollector) List(ctx context.Context, filter TraceFilter) ([]domain.TraceSummary, error) {
	c.mu.RLock()
	var out []domain.TraceSummary
	seen := make(map[string]struct{})
	for i := len(c.traces) - 1; i >= 0; i-- {
		tr := c.traces[i]
		if matchesFilter(&tr, filter) {
			out = append(out, tr.Summary())
			seen[tr.ID] = struct{}{}
		}
	}
	c.mu.RUnlock()

	if c.repo != nil {
		stored, err := c.repo.ListTraces(ctx, filter)
		if err != nil {
			return out, fmt.Errorf("listing stored traces: %w", err)
		}
		for _, tr := range stored {
			if _, ok := seen[tr.ID]; !ok {
				out = append(out, tr.Summary())
			}
		}
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Get returns one trace by id, checking memory before the repository.
func (c *TraceCollector) Get(ctx context.Context, id string) (*domain.Trace, error) {
	c.mu.RLock()
	for i := range c.traces {
		if c.traces[i].ID == id {
			tr := c.traces[i]
			c.mu.RUnlock()
			return &tr, nil
		}
	}
	c.mu.RUnlock()

	if c.repo != nil {
		return c.repo.GetTrace(ctx, id)
	}
	return nil, fmt.Errorf("trace not found: %s", id)
}

func matchesFilter(tr *domain.Trace, f TraceFilter) bool {
	if f.ContextType != "" && tr.ContextType != f.ContextType {
		return false
	}
	if f.ReferenceID != "" && tr.ReferenceID != f.ReferenceID {
		return false
	}
	if f.TenantID != "" && tr.TenantID != f.TenantID {
		return false
	}
	return true
}
