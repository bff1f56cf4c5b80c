package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func storedTrace(id, referenceID string) *domain.Trace {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Trace{
		ID:                id,
		ContextType:       domain.ContextConversation,
		ReferenceID:       referenceID,
		ReferenceName:     "Support chat",
		TenantID:          "tenant-1",
		CreatedAt:         now,
		UpdatedAt:         now,
		Logs:              []any{"run started"},
		ReferenceMetadata: map[string]any{"channel": "web"},
		Nodes: []domain.TraceNode{
			{ID: id + "-a", Type: domain.NodeTypeLLM, Status: domain.StatusCompleted, Name: "plan", Nodes: []domain.TraceNode{
				{ID: id + "-a1", Type: domain.NodeTypeTool, Status: domain.StatusFailed, Name: "search"},
			}},
		},
	}
}

func TestRepository_SaveAndGetTrace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tr := storedTrace("tr-1", "conv-1")
	require.NoError(t, repo.SaveTrace(ctx, tr))

	got, err := repo.GetTrace(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)
	assert.Equal(t, tr.ContextType, got.ContextType)
	assert.Equal(t, "run started", got.Logs[0])
	assert.Equal(t, "web", got.ReferenceMetadata["channel"])

	// Nested nodes survive the JSON round trip.
	require.Len(t, got.Nodes, 1)
	require.Len(t, got.Nodes[0].Nodes, 1)
	assert.Equal(t, domain.StatusFailed, got.Nodes[0].Nodes[0].Status)
}

func TestRepository_SaveIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tr := storedTrace("tr-1", "conv-1")
	require.NoError(t, repo.SaveTrace(ctx, tr))

	tr.ReferenceName = "Renamed"
	tr.Nodes = append(tr.Nodes, domain.TraceNode{ID: "tr-1-b", Type: domain.NodeTypeCode, Name: "extra"})
	require.NoError(t, repo.SaveTrace(ctx, tr))

	got, err := repo.GetTrace(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.ReferenceName)
	assert.Len(t, got.Nodes, 2)
}

func TestRepository_GetMissingTrace(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetTrace(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRepository_ListTracesFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := storedTrace("tr-old", "conv-1")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, repo.SaveTrace(ctx, older))
	require.NoError(t, repo.SaveTrace(ctx, storedTrace("tr-new", "conv-1")))

	other := storedTrace("tr-other", "conv-2")
	other.ContextType = domain.ContextAutonomousAgent
	require.NoError(t, repo.SaveTrace(ctx, other))

	got, err := repo.ListTraces(ctx, services.TraceFilter{
		ContextType: domain.ContextConversation,
		ReferenceID: "conv-1",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tr-new", got[0].ID) // newest first
	assert.Equal(t, "tr-old", got[1].ID)

	limited, err := repo.ListTraces(ctx, services.TraceFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListTraces(ctx, services.TraceFilter{TenantID: "tenant-x"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
