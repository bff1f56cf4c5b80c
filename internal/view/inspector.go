package view

import (
	"encoding/json"
	"strings"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

// Sections longer than this many pretty-printed lines start collapsed.
const collapseLineThreshold = 12

// Section is one collapsible block of pretty-printed JSON.
type Section struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	JSON             string `json:"json"`
	Lines            int    `json:"lines"`
	DefaultCollapsed bool   `json:"defaultCollapsed"`
}

// PayloadView renders one side (input or output) of a node payload. Text is
// shown verbatim; structured parts become sections. Raw holds the whole
// payload for nodes whose data fits no reserved key; Serialized always carries
// the complete payload JSON for copy-to-clipboard.
type PayloadView struct {
	Text       string    `json:"text,omitempty"`
	Sections   []Section `json:"sections,omitempty"`
	Raw        *Section  `json:"raw,omitempty"`
	Serialized string    `json:"serialized,omitempty"`
}

// LogLine is one entry of a trace or node log: plain text or structured JSON.
type LogLine struct {
	Text string `json:"text,omitempty"`
	JSON string `json:"json,omitempty"`
}

// InspectorView is the detail panel for the current selection.
type InspectorView struct {
	Mode     string       `json:"mode"` // "empty", "root" or "node"
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Logs     []LogLine    `json:"logs,omitempty"`
	Metadata *Section     `json:"metadata,omitempty"`
	Input    *PayloadView `json:"input,omitempty"`
	Output   *PayloadView `json:"output,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// BuildInspector renders the detail panel for the snapshot's selection. Root
// selection shows the trace's own logs and reference metadata; node selection
// shows the node's logs, metadata and payloads. No selection at all (no
// traces) yields the empty mode.
func BuildInspector(st services.SessionState) InspectorView {
	tr := st.SelectedTrace()
	if tr == nil {
		return InspectorView{Mode: "empty", Title: "No trace selected"}
	}

	if st.SelectedNodeID == "" {
		return buildRootInspector(tr)
	}

	node, _, ok := domain.FindNodeByID(tr.Nodes, st.SelectedNodeID)
	if !ok {
		return buildRootInspector(tr)
	}
	return buildNodeInspector(node)
}

func buildRootInspector(tr *domain.Trace) InspectorView {
	title := tr.ReferenceName
	if title == "" {
		title = tr.ID
	}
	return InspectorView{
		Mode:     "root",
		Title:    title,
		Subtitle: string(tr.ContextType),
		Logs:     buildLogLines(tr.Logs),
		Metadata: buildSection("referenceMetadata", "Metadata", tr.ReferenceMetadata),
	}
}

func buildNodeInspector(node *domain.TraceNode) InspectorView {
	iv := InspectorView{
		Mode:     "node",
		Title:    node.Name,
		Subtitle: string(node.Type),
		Logs:     buildLogLines(node.Logs),
		Metadata: buildSection("metadata", "Metadata", node.Metadata),
		Error:    node.Error,
	}
	if node.Data != nil {
		iv.Input = buildPayloadView(node.Data.Input)
		iv.Output = buildPayloadView(node.Data.Output)
	}
	return iv
}

// buildPayloadView splits a payload into its text and its structured
// sections. Data that carries neither text nor any reserved key collapses
// into a single raw dump so nothing an agent sent is ever invisible.
func buildPayloadView(d *domain.NodeData) *PayloadView {
	if d == nil || d.IsEmpty() {
		return nil
	}

	pv := &PayloadView{Text: d.Text}
	if s := buildSection("arguments", "Arguments", d.Arguments); s != nil {
		pv.Sections = append(pv.Sections, *s)
	}
	if s := buildSection("metadata", "Metadata", d.Metadata); s != nil {
		pv.Sections = append(pv.Sections, *s)
	}
	if s := buildSection("extraData", "Extra data", d.ExtraData); s != nil {
		pv.Sections = append(pv.Sections, *s)
	}

	if d.Text == "" && !d.HasReservedKeys() && len(d.Extra) > 0 {
		pv.Raw = buildSection("raw", "Data", d.Extra)
	} else if s := buildSection("extra", "Other", d.Extra); s != nil {
		pv.Sections = append(pv.Sections, *s)
	}

	if serialized, err := json.Marshal(*d); err == nil {
		pv.Serialized = string(serialized)
	}

	return pv
}

func buildSection(key, label string, data map[string]any) *Section {
	if len(data) == 0 {
		return nil
	}
	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil
	}
	lines := strings.Count(string(pretty), "\n") + 1
	return &Section{
		Key:              key,
		Label:            label,
		JSON:             string(pretty),
		Lines:            lines,
		DefaultCollapsed: lines > collapseLineThreshold,
	}
}

func buildLogLines(logs []any) []LogLine {
	if len(logs) == 0 {
		return nil
	}
	out := make([]LogLine, 0, len(logs))
	for _, entry := range logs {
		if s, ok := entry.(string); ok {
			out = append(out, LogLine{Text: s})
			continue
		}
		pretty, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			continue
		}
		out = append(out, LogLine{JSON: string(pretty)})
	}
	return out
}
