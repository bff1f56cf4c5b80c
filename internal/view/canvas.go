package view

import (
	"fmt"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
	"github.com/tracedeck/tracedeck/internal/view/layout"
)

const (
	// Canvas node box size; the layout engine spaces boxes of this size.
	NodeWidth  = 180.0
	NodeHeight = 64.0

	defaultViewWidth  = 1280.0
	defaultViewHeight = 800.0
)

// CanvasNode is one positioned box on the flow canvas.
type CanvasNode struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"fullName,omitempty"`
	Type        string  `json:"type"`
	TypeColor   string  `json:"typeColor"`
	Status      string  `json:"status"`
	StatusColor string  `json:"statusColor"`
	Duration    string  `json:"duration,omitempty"`
	HasChildren bool    `json:"hasChildren"`
	Collapsed   bool    `json:"collapsed"`
	Selected    bool    `json:"selected"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// EdgeKind distinguishes execution-order edges from nesting edges.
type EdgeKind string

const (
	EdgeSequential   EdgeKind = "sequential"
	EdgeHierarchical EdgeKind = "hierarchical"
)

// CanvasEdge connects two canvas nodes.
type CanvasEdge struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
	Animated bool     `json:"animated"`
}

// CanvasView is the flow panel: the current trace laid out as a graph.
type CanvasView struct {
	Nodes     []CanvasNode    `json:"nodes"`
	Edges     []CanvasEdge    `json:"edges"`
	Direction string          `json:"direction"`
	Viewport  layout.Viewport `json:"viewport"`
}

// BuildCanvas turns the snapshot's current trace into a positioned graph.
// Only nodes visible under the canvas collapse set appear: collapsing a node
// hides its whole subtree. Consecutive top-level nodes are linked with
// sequential edges (execution order), visible parent/child pairs with
// hierarchical ones. Edges into running nodes animate.
func BuildCanvas(st services.SessionState) CanvasView {
	cv := CanvasView{
		Nodes:     []CanvasNode{},
		Edges:     []CanvasEdge{},
		Direction: string(st.LayoutDirection),
		Viewport:  layout.Viewport{Zoom: 1},
	}

	tr := st.SelectedTrace()
	if tr == nil {
		return cv
	}

	flattenVisible(&cv, st, tr.Nodes, "")

	// Execution order between top-level steps.
	var prev string
	for i := range tr.Nodes {
		id := tr.Nodes[i].ID
		if prev != "" {
			cv.Edges = append(cv.Edges, CanvasEdge{
				ID:       fmt.Sprintf("seq-%s-%s", prev, id),
				Source:   prev,
				Target:   id,
				Kind:     EdgeSequential,
				Animated: domain.IsRunningStatus(tr.Nodes[i].Status),
			})
		}
		prev = id
	}

	dir := layout.DirectionHorizontal
	if st.LayoutDirection == services.LayoutVertical {
		dir = layout.DirectionVertical
	}

	boxes := make([]layout.Node, len(cv.Nodes))
	for i, n := range cv.Nodes {
		boxes[i] = layout.Node{ID: n.ID, Width: n.Width, Height: n.Height}
	}
	edges := make([]layout.Edge, len(cv.Edges))
	for i, e := range cv.Edges {
		edges[i] = layout.Edge{Source: e.Source, Target: e.Target}
	}

	positions := layout.Assign(boxes, edges, dir)
	for i := range cv.Nodes {
		p := positions[cv.Nodes[i].ID]
		cv.Nodes[i].X = p.X
		cv.Nodes[i].Y = p.Y
	}
	cv.Viewport = layout.Fit(boxes, positions, defaultViewWidth, defaultViewHeight)

	return cv
}

// flattenVisible walks the subtree in pre-order, emitting a box per node and
// a hierarchical edge from each visible parent to its children, and stopping
// at collapsed nodes.
func flattenVisible(cv *CanvasView, st services.SessionState, nodes []domain.TraceNode, parentID string) {
	for i := range nodes {
		n := &nodes[i]
		_, collapsed := st.CanvasCollapsed[n.ID]

		cv.Nodes = append(cv.Nodes, CanvasNode{
			ID:          n.ID,
			Name:        TruncateName(n.Name, nameBudget),
			FullName:    n.Name,
			Type:        string(n.Type),
			TypeColor:   TypeColor(n.Type),
			Status:      string(n.Status),
			StatusColor: StatusColor(n.Status),
			Duration:    domain.FormatDuration(n.Duration),
			HasChildren: n.HasSubNodes(),
			Collapsed:   collapsed,
			Selected:    n.ID == st.SelectedNodeID,
			Width:       NodeWidth,
			Height:      NodeHeight,
		})

		if parentID != "" {
			cv.Edges = append(cv.Edges, CanvasEdge{
				ID:       fmt.Sprintf("hier-%s-%s", parentID, n.ID),
				Source:   parentID,
				Target:   n.ID,
				Kind:     EdgeHierarchical,
				Animated: domain.IsRunningStatus(n.Status),
			})
		}

		if n.HasSubNodes() && !collapsed {
			flattenVisible(cv, st, n.Nodes, n.ID)
		}
	}
}
