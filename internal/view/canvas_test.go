package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

func canvasNodeIDs(cv CanvasView) []string {
	ids := make([]string, len(cv.Nodes))
	for i, n := range cv.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func findEdge(cv CanvasView, source, target string) (CanvasEdge, bool) {
	for _, e := range cv.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return CanvasEdge{}, false
}

func TestBuildCanvas_EmptySnapshot(t *testing.T) {
	cv := BuildCanvas(snapshotWith(nil))
	assert.Empty(t, cv.Nodes)
	assert.Empty(t, cv.Edges)
	assert.Equal(t, 1.0, cv.Viewport.Zoom)
}

func TestBuildCanvas_SequentialAndHierarchicalEdges(t *testing.T) {
	st := snapshotWith([]domain.Trace{nestedTrace()})

	cv := BuildCanvas(st)
	require.Equal(t, []string{"a", "b", "b1"}, canvasNodeIDs(cv))

	seq, ok := findEdge(cv, "a", "b")
	require.True(t, ok)
	assert.Equal(t, EdgeSequential, seq.Kind)

	hier, ok := findEdge(cv, "b", "b1")
	require.True(t, ok)
	assert.Equal(t, EdgeHierarchical, hier.Kind)

	_, ok = findEdge(cv, "a", "b1")
	assert.False(t, ok)
}

func TestBuildCanvas_CollapseHidesSubtree(t *testing.T) {
	st := snapshotWith([]domain.Trace{nestedTrace()})
	st.CanvasCollapsed["b"] = struct{}{}

	cv := BuildCanvas(st)
	assert.Equal(t, []string{"a", "b"}, canvasNodeIDs(cv))

	_, ok := findEdge(cv, "b", "b1")
	assert.False(t, ok)
}

func TestBuildCanvas_CollapseSetsAreIndependentAcrossPanels(t *testing.T) {
	// Collapsing a node on the canvas must not touch the hierarchy.
	st := snapshotWith([]domain.Trace{nestedTrace()})
	st.CanvasCollapsed["b"] = struct{}{}

	cv := BuildCanvas(st)
	hv := BuildHierarchy(st)

	assert.NotContains(t, canvasNodeIDs(cv), "b1")
	assert.Contains(t, rowIDs(hv), "b1")
}

func TestBuildCanvas_EdgesIntoRunningNodesAnimate(t *testing.T) {
	tr := domain.Trace{
		ID:          "tr-run",
		ContextType: domain.ContextConversation,
		ReferenceID: "conv-1",
		Nodes: []domain.TraceNode{
			{ID: "done", Type: domain.NodeTypeLLM, Status: domain.StatusCompleted, Name: "plan"},
			{ID: "live", Type: domain.NodeTypeTool, Status: domain.StatusRunning, Name: "search", Nodes: []domain.TraceNode{
				{ID: "sub", Type: domain.NodeTypeHTTP, Status: domain.StatusRunning, Name: "fetch"},
			}},
		},
	}
	st := snapshotWith([]domain.Trace{tr})

	cv := BuildCanvas(st)

	seq, ok := findEdge(cv, "done", "live")
	require.True(t, ok)
	assert.True(t, seq.Animated)

	hier, ok := findEdge(cv, "live", "sub")
	require.True(t, ok)
	assert.True(t, hier.Animated)
}

func TestBuildCanvas_PositionsFollowDirection(t *testing.T) {
	st := snapshotWith([]domain.Trace{nestedTrace()})

	cv := BuildCanvas(st)
	pos := map[string]CanvasNode{}
	for _, n := range cv.Nodes {
		pos[n.ID] = n
	}
	assert.Less(t, pos["a"].X, pos["b"].X)
	assert.Less(t, pos["b"].X, pos["b1"].X)

	st.LayoutDirection = services.LayoutVertical
	cv = BuildCanvas(st)
	pos = map[string]CanvasNode{}
	for _, n := range cv.Nodes {
		pos[n.ID] = n
	}
	assert.Less(t, pos["a"].Y, pos["b"].Y)
	assert.Less(t, pos["b"].Y, pos["b1"].Y)
	assert.Equal(t, "vertical", cv.Direction)
}

func TestBuildCanvas_SelectionHighlight(t *testing.T) {
	st := snapshotWith([]domain.Trace{nestedTrace()})
	st.SelectedNodeID = "b"

	cv := BuildCanvas(st)
	for _, n := range cv.Nodes {
		assert.Equal(t, n.ID == "b", n.Selected, n.ID)
	}
}
