package view

import (
	"unicode/utf8"

	"github.com/tracedeck/tracedeck/internal/core/domain"
)

// typeColors is the fixed badge palette per node type. Types outside the
// vocabulary fall back to the neutral slate.
var typeColors = map[domain.NodeType]string{
	domain.NodeTypeAgent:       "#8b5cf6",
	domain.NodeTypeTool:        "#f59e0b",
	domain.NodeTypeLLM:         "#3b82f6",
	domain.NodeTypeChain:       "#06b6d4",
	domain.NodeTypeRetriever:   "#10b981",
	domain.NodeTypeWorkflow:    "#6366f1",
	domain.NodeTypeFunction:    "#ec4899",
	domain.NodeTypeHTTP:        "#14b8a6",
	domain.NodeTypeCode:        "#84cc16",
	domain.NodeTypeConditional: "#eab308",
	domain.NodeTypeLoop:        "#f97316",
	domain.NodeTypeCustom:      "#a855f7",
}

const neutralColor = "#64748b"

// TypeColor returns the badge color for a node type.
func TypeColor(t domain.NodeType) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return neutralColor
}

var statusGlyphs = map[domain.NodeStatus]string{
	domain.StatusCompleted: "✓",
	domain.StatusFailed:    "✗",
	domain.StatusRunning:   "●",
	domain.StatusPending:   "○",
	domain.StatusSkipped:   "⊘",
	domain.StatusCancelled: "⊗",
}

// StatusGlyph returns the marker for a status; unknown statuses get none.
func StatusGlyph(s domain.NodeStatus) string {
	return statusGlyphs[s]
}

var statusColors = map[domain.NodeStatus]string{
	domain.StatusCompleted: "#22c55e",
	domain.StatusFailed:    "#ef4444",
	domain.StatusRunning:   "#3b82f6",
	domain.StatusPending:   "#94a3b8",
	domain.StatusSkipped:   "#94a3b8",
	domain.StatusCancelled: "#f97316",
}

// StatusColor returns the indicator color for a status; unknown statuses are
// neutral.
func StatusColor(s domain.NodeStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return neutralColor
}

// TruncateName shortens a name past the budget, appending an ellipsis. It
// counts runes so multi-byte names are never split mid-character.
func TruncateName(name string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(name) <= budget {
		return name
	}
	runes := []rune(name)
	return string(runes[:budget]) + "…"
}
