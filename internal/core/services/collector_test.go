package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tracedeck/tracedeck/internal/core/domain"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	args := m.Called(ctx, trace)
	return args.Error(0)
}

func (m *mockRepo) ListTraces(ctx context.Context, filter TraceFilter) ([]domain.Trace, error) {
	args := m.Called(ctx, filter)
	if traces := args.Get(0); traces != nil {
		return traces.([]domain.Trace), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetTrace(ctx context.Context, id string) (*domain.Trace, error) {
	args := m.Called(ctx, id)
	if tr := args.Get(0); tr != nil {
		return tr.(*domain.Trace), args.Error(1)
	}
	return nil, args.Error(1)
}

func newMemCollector(maxTraces int) *TraceCollector {
	return NewTraceCollector(testLogger(), nil, NewEventBus(testLogger()), maxTraces)
}

func validTrace(id string) *domain.Trace {
	return &domain.Trace{
		ID:          id,
		ContextType: domain.ContextConversation,
		ReferenceID: "conv-1",
		Nodes: []domain.TraceNode{
			{ID: id + "-n1", Type: domain.NodeTypeLLM, Status: domain.StatusCompleted, Name: "plan"},
		},
	}
}

func TestCollector_IngestAssignsIDAndTimestamps(t *testing.T) {
	c := newMemCollector(10)

	tr := validTrace("")
	got, err := c.Ingest(context.Background(), tr)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCollector_IngestRejectsInvalid(t *testing.T) {
	c := newMemCollector(10)
	ctx := context.Background()

	_, err := c.Ingest(ctx, nil)
	assert.Error(t, err)

	_, err = c.Ingest(ctx, &domain.Trace{ContextType: "bogus", ReferenceID: "r"})
	assert.Error(t, err)

	_, err = c.Ingest(ctx, &domain.Trace{ContextType: domain.ContextConversation})
	assert.Error(t, err)

	dup := validTrace("tr-dup")
	dup.Nodes = append(dup.Nodes, domain.TraceNode{ID: dup.Nodes[0].ID})
	_, err = c.Ingest(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestCollector_IngestReplacesExisting(t *testing.T) {
	c := newMemCollector(10)
	ctx := context.Background()

	_, err := c.Ingest(ctx, validTrace("tr-1"))
	require.NoError(t, err)

	updated := validTrace("tr-1")
	updated.ReferenceName = "second pass"
	_, err = c.Ingest(ctx, updated)
	require.NoError(t, err)

	got, err := c.Get(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "second pass", got.ReferenceName)

	list, err := c.List(ctx, TraceFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCollector_EvictsOldestBeyondWindow(t *testing.T) {
	c := newMemCollector(2)
	ctx := context.Background()

	for _, id := range []string{"tr-1", "tr-2", "tr-3"} {
		_, err := c.Ingest(ctx, validTrace(id))
		require.NoError(t, err)
	}

	_, err := c.Get(ctx, "tr-1")
	assert.Error(t, err)

	list, err := c.List(ctx, TraceFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tr-3", list[0].ID) // newest first
	assert.Equal(t, "tr-2", list[1].ID)
}

func TestCollector_TracesForFiltersByScope(t *testing.T) {
	c := newMemCollector(10)
	ctx := context.Background()

	_, err := c.Ingest(ctx, validTrace("tr-1"))
	require.NoError(t, err)

	other := validTrace("tr-2")
	other.ReferenceID = "conv-other"
	_, err = c.Ingest(ctx, other)
	require.NoError(t, err)

	agent := validTrace("tr-3")
	agent.ContextType = domain.ContextAutonomousAgent
	_, err = c.Ingest(ctx, agent)
	require.NoError(t, err)

	traces, err := c.TracesFor(ctx, domain.ContextConversation, "conv-1")
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "tr-1", traces[0].ID)
}

func TestCollector_MergesRepositoryResults(t *testing.T) {
	repo := new(mockRepo)
	c := NewTraceCollector(testLogger(), repo, NewEventBus(testLogger()), 10)
	ctx := context.Background()

	repo.On("SaveTrace", mock.Anything, mock.Anything).Return(nil)
	_, err := c.Ingest(ctx, validTrace("tr-mem"))
	require.NoError(t, err)

	stored := validTrace("tr-old")
	repo.On("ListTraces", mock.Anything, mock.Anything).Return([]domain.Trace{*validTrace("tr-mem"), *stored}, nil)

	traces, err := c.TracesFor(ctx, domain.ContextConversation, "conv-1")
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "tr-mem", traces[0].ID)
	assert.Equal(t, "tr-old", traces[1].ID)
}

func TestCollector_GetFallsThroughToRepository(t *testing.T) {
	repo := new(mockRepo)
	c := NewTraceCollector(testLogger(), repo, NewEventBus(testLogger()), 10)
	ctx := context.Background()

	want := validTrace("tr-stored")
	repo.On("GetTrace", mock.Anything, "tr-stored").Return(want, nil)

	got, err := c.Get(ctx, "tr-stored")
	require.NoError(t, err)
	assert.Equal(t, "tr-stored", got.ID)
}

func TestCollector_ListHonorsLimit(t *testing.T) {
	c := newMemCollector(10)
	ctx := context.Background()

	for _, id := range []string{"tr-1", "tr-2", "tr-3"} {
		_, err := c.Ingest(ctx, validTrace(id))
		require.NoError(t, err)
	}

	list, err := c.List(ctx, TraceFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCollector_RepositoryErrorKeepsMemoryResults(t *testing.T) {
	repo := new(mockRepo)
	c := NewTraceCollector(testLogger(), repo, NewEventBus(testLogger()), 10)
	ctx := context.Background()

	repo.On("SaveTrace", mock.Anything, mock.Anything).Return(nil)
	_, err := c.Ingest(ctx, validTrace("tr-mem"))
	require.NoError(t, err)

	repo.On("ListTraces", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("db locked"))

	traces, err := c.TracesFor(ctx, domain.ContextConversation, "conv-1")
	assert.Error(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "tr-mem", traces[0].ID)
}
