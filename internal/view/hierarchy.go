// Package view turns a session snapshot into the render models the console
// panels consume: the hierarchy list, the canvas graph, the inspector and the
// container that frames them. Builders are pure functions over the snapshot,
// so every panel derived from the same snapshot agrees on selection and
// collapse state.
package view

import (
	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

const (
	indentStep = 16 // pixels per nesting level
	nameBudget = 40 // characters before ellipsis
)

// HierarchyRow is one line of the indented tree list. Trace roots and trace
// nodes share the shape; IsRoot tells them apart.
type HierarchyRow struct {
	ID          string `json:"id"`
	TraceID     string `json:"traceId"`
	IsRoot      bool   `json:"isRoot"`
	Depth       int    `json:"depth"`
	Indent      int    `json:"indent"`
	Name        string `json:"name"`
	FullName    string `json:"fullName,omitempty"`
	Type        string `json:"type,omitempty"`
	TypeColor   string `json:"typeColor,omitempty"`
	StatusGlyph string `json:"statusGlyph,omitempty"`
	StatusColor string `json:"statusColor,omitempty"`
	Duration    string `json:"duration,omitempty"`
	HasChildren bool   `json:"hasChildren"`
	Collapsed   bool   `json:"collapsed"`
	Selected    bool   `json:"selected"`
}

// HierarchyView is the full tree panel.
type HierarchyView struct {
	Rows []HierarchyRow `json:"rows"`
}

// BuildHierarchy flattens every trace into rows, one root row per trace and
// one row per visible node. Collapsed subtrees contribute no rows below the
// collapsed entry. Selection highlighting comes solely from the snapshot, so
// the hierarchy can never disagree with the canvas or inspector.
func BuildHierarchy(st services.SessionState) HierarchyView {
	hv := HierarchyView{Rows: []HierarchyRow{}}

	for i := range st.Traces {
		tr := &st.Traces[i]
		current := tr.ID == st.SelectedTraceID
		_, rootCollapsed := st.HierarchyCollapsed[tr.ID]

		name := tr.ReferenceName
		if name == "" {
			name = tr.ID
		}
		hv.Rows = append(hv.Rows, HierarchyRow{
			ID:          tr.ID,
			TraceID:     tr.ID,
			IsRoot:      true,
			Name:        TruncateName(name, nameBudget),
			FullName:    name,
			HasChildren: len(tr.Nodes) > 0,
			Collapsed:   rootCollapsed,
			Selected:    current && st.SelectedNodeID == "",
		})

		if rootCollapsed {
			continue
		}
		appendNodeRows(&hv, st, tr, tr.Nodes, 1)
	}

	return hv
}

func appendNodeRows(hv *HierarchyView, st services.SessionState, tr *domain.Trace, nodes []domain.TraceNode, depth int) {
	current := tr.ID == st.SelectedTraceID
	for i := range nodes {
		n := &nodes[i]
		_, collapsed := st.HierarchyCollapsed[n.ID]

		hv.Rows = append(hv.Rows, HierarchyRow{
			ID:          n.ID,
			TraceID:     tr.ID,
			Depth:       depth,
			Indent:      depth * indentStep,
			Name:        TruncateName(n.Name, nameBudget),
			FullName:    n.Name,
			Type:        string(n.Type),
			TypeColor:   TypeColor(n.Type),
			StatusGlyph: StatusGlyph(n.Status),
			StatusColor: StatusColor(n.Status),
			Duration:    domain.FormatDuration(n.Duration),
			HasChildren: n.HasSubNodes(),
			Collapsed:   collapsed,
			Selected:    current && n.ID == st.SelectedNodeID,
		})

		if n.HasSubNodes() && !collapsed {
			appendNodeRows(hv, st, tr, n.Nodes, depth+1)
		}
	}
}
