package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(id string) Node { return Node{ID: id, Width: 180, Height: 64} }

func TestAssign_Empty(t *testing.T) {
	assert.Empty(t, Assign(nil, nil, DirectionHorizontal))
	assert.Empty(t, Assign([]Node{}, []Edge{{Source: "a", Target: "b"}}, DirectionVertical))
}

func TestAssign_ChainAdvancesAlongMainAxis(t *testing.T) {
	nodes := []Node{box("a"), box("b"), box("c")}
	edges := []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}

	pos := Assign(nodes, edges, DirectionHorizontal)
	require.Len(t, pos, 3)
	assert.Less(t, pos["a"].X, pos["b"].X)
	assert.Less(t, pos["b"].X, pos["c"].X)
	assert.Equal(t, pos["a"].Y, pos["b"].Y)

	// A chain steps by node width plus the rank gap.
	assert.InDelta(t, 180+80, pos["b"].X-pos["a"].X, 0.001)
}

func TestAssign_VerticalSwapsAxes(t *testing.T) {
	nodes := []Node{box("a"), box("b")}
	edges := []Edge{{Source: "a", Target: "b"}}

	pos := Assign(nodes, edges, DirectionVertical)
	assert.Less(t, pos["a"].Y, pos["b"].Y)
	assert.Equal(t, pos["a"].X, pos["b"].X)
	assert.InDelta(t, 64+80, pos["b"].Y-pos["a"].Y, 0.001)
}

func TestAssign_SiblingsShareRankWithGap(t *testing.T) {
	nodes := []Node{box("root"), box("left"), box("right")}
	edges := []Edge{{Source: "root", Target: "left"}, {Source: "root", Target: "right"}}

	pos := Assign(nodes, edges, DirectionHorizontal)
	assert.Equal(t, pos["left"].X, pos["right"].X)
	assert.InDelta(t, 64+40, pos["right"].Y-pos["left"].Y, 0.001)
}

func TestAssign_RankIsLongestPath(t *testing.T) {
	// a -> b -> d and a -> d: d must sit past b, not beside it.
	nodes := []Node{box("a"), box("b"), box("d")}
	edges := []Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "d"},
		{Source: "a", Target: "d"},
	}

	pos := Assign(nodes, edges, DirectionHorizontal)
	assert.Greater(t, pos["d"].X, pos["b"].X)
}

func TestAssign_IgnoresUnknownEdgeEndpoints(t *testing.T) {
	nodes := []Node{box("a")}
	edges := []Edge{{Source: "a", Target: "ghost"}, {Source: "ghost", Target: "a"}}

	pos := Assign(nodes, edges, DirectionHorizontal)
	require.Len(t, pos, 1)
}

func TestAssign_CycleDoesNotHang(t *testing.T) {
	nodes := []Node{box("a"), box("b")}
	edges := []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}}

	pos := Assign(nodes, edges, DirectionHorizontal)
	assert.Len(t, pos, 2)
}

func TestAssign_Deterministic(t *testing.T) {
	nodes := []Node{box("root"), box("c1"), box("c2"), box("c3")}
	edges := []Edge{
		{Source: "root", Target: "c1"},
		{Source: "root", Target: "c2"},
		{Source: "root", Target: "c3"},
	}

	first := Assign(nodes, edges, DirectionHorizontal)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assign(nodes, edges, DirectionHorizontal))
	}
	// Ties preserve the input order on the cross axis.
	assert.Less(t, first["c1"].Y, first["c2"].Y)
	assert.Less(t, first["c2"].Y, first["c3"].Y)
}

func TestFit_EmptyIsIdentity(t *testing.T) {
	vp := Fit(nil, nil, 800, 600)
	assert.Equal(t, Viewport{Zoom: 1}, vp)
}

func TestFit_SmallGraphIsNotZoomedIn(t *testing.T) {
	nodes := []Node{box("a")}
	pos := map[string]Point{"a": {X: 0, Y: 0}}

	vp := Fit(nodes, pos, 1920, 1080)
	assert.Equal(t, 1.0, vp.Zoom)
	// Centered: the node's midpoint maps to the view's midpoint.
	assert.InDelta(t, 1920/2-90, vp.X, 0.001)
	assert.InDelta(t, 1080/2-32, vp.Y, 0.001)
}

func TestFit_LargeGraphZoomsOut(t *testing.T) {
	nodes := []Node{box("a"), box("b")}
	pos := map[string]Point{"a": {X: 0, Y: 0}, "b": {X: 2000, Y: 0}}

	vp := Fit(nodes, pos, 800, 600)
	assert.Less(t, vp.Zoom, 1.0)
	assert.Greater(t, vp.Zoom, 0.0)

	// Everything plus padding fits at the returned zoom.
	graphW := 2000 + 180 + 2*48.0
	assert.LessOrEqual(t, graphW*vp.Zoom, 800.001)
}
