package domain

import (
	"encoding/json"
	"time"
)

// ContextType identifies what kind of execution produced a trace.
type ContextType string

const (
	ContextConversation    ContextType = "conversation"
	ContextAutonomousAgent ContextType = "autonomous_agent"
)

// Valid reports whether the context type is one of the known values.
func (c ContextType) Valid() bool {
	return c == ContextConversation || c == ContextAutonomousAgent
}

// NodeType classifies a trace node for presentation (badge color, icon).
// Open vocabulary: unknown values get a neutral presentation, never an error.
type NodeType string

const (
	NodeTypeAgent       NodeType = "agent"
	NodeTypeTool        NodeType = "tool"
	NodeTypeLLM         NodeType = "llm"
	NodeTypeChain       NodeType = "chain"
	NodeTypeRetriever   NodeType = "retriever"
	NodeTypeWorkflow    NodeType = "workflow"
	NodeTypeFunction    NodeType = "function"
	NodeTypeHTTP        NodeType = "http"
	NodeTypeCode        NodeType = "code"
	NodeTypeConditional NodeType = "conditional"
	NodeTypeLoop        NodeType = "loop"
	NodeTypeCustom      NodeType = "custom"
)

// NodeStatus indicates completion state of a trace node.
type NodeStatus string

const (
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
	StatusRunning   NodeStatus = "running"
	StatusPending   NodeStatus = "pending"
	StatusSkipped   NodeStatus = "skipped"
	StatusCancelled NodeStatus = "cancelled"
)

// Trace is one recorded execution: a conversation turn or an autonomous-agent
// run. Nodes are the top-level execution steps in execution order; that order
// is significant and preserved through every transformation.
type Trace struct {
	ID            string      `json:"id"`
	ContextType   ContextType `json:"contextType"`
	ReferenceID   string      `json:"referenceId"`
	ReferenceName string      `json:"referenceName,omitempty"`
	TenantID      string      `json:"tenantId,omitempty"`
	CreatedBy     string      `json:"createdBy,omitempty"`
	UpdatedBy     string      `json:"updatedBy,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	// Logs entries are either plain strings or arbitrary structured records.
	Logs              []any          `json:"logs,omitempty"`
	ReferenceMetadata map[string]any `json:"referenceMetadata,omitempty"`

	Nodes []TraceNode `json:"nodes,omitempty"`
}

// NodeCount returns the total number of nodes in the trace, all levels included.
func (t *Trace) NodeCount() int {
	return CountNodes(t.Nodes)
}

// Summary returns the lightweight listing view of the trace.
func (t *Trace) Summary() TraceSummary {
	return TraceSummary{
		ID:            t.ID,
		ContextType:   t.ContextType,
		ReferenceID:   t.ReferenceID,
		ReferenceName: t.ReferenceName,
		TenantID:      t.TenantID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		NodeCount:     t.NodeCount(),
	}
}

// TraceSummary is a lightweight view for listing traces.
type TraceSummary struct {
	ID            string      `json:"id"`
	ContextType   ContextType `json:"contextType"`
	ReferenceID   string      `json:"referenceId"`
	ReferenceName string      `json:"referenceName,omitempty"`
	TenantID      string      `json:"tenantId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	NodeCount     int         `json:"nodeCount"`
}

// TraceNode is a single execution step. Nodes nest recursively and form a
// strict tree: no cycles, no shared children, ids unique across the whole
// trace. A node with no sub-nodes is a leaf.
type TraceNode struct {
	ID       string     `json:"id"`
	Type     NodeType   `json:"type,omitempty"`
	Status   NodeStatus `json:"status,omitempty"`
	Name     string     `json:"name"`
	StartAt  *time.Time `json:"startAt,omitempty"`
	EndAt    *time.Time `json:"endAt,omitempty"`
	Duration *float64   `json:"duration,omitempty"` // seconds

	Data      *NodePayload   `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Logs      []any          `json:"logs,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedBy string         `json:"createdBy,omitempty"`

	Nodes []TraceNode `json:"nodes,omitempty"`
}

// HasSubNodes reports whether the node has any children.
func (n *TraceNode) HasSubNodes() bool {
	return len(n.Nodes) > 0
}

// NodePayload groups the structured input and output of a node.
type NodePayload struct {
	Input  *NodeData `json:"input,omitempty"`
	Output *NodeData `json:"output,omitempty"`
}

// NodeData is a structured input or output payload. The reserved keys text,
// arguments, metadata and extraData are lifted into fields; every other key
// survives the JSON round-trip in Extra.
type NodeData struct {
	Text      string
	Arguments map[string]any
	Metadata  map[string]any
	ExtraData map[string]any
	Extra     map[string]any
}

// HasReservedKeys reports whether any of the reserved sub-keys is present.
func (d *NodeData) HasReservedKeys() bool {
	return d.Text != "" || d.Arguments != nil || d.Metadata != nil || d.ExtraData != nil
}

// IsEmpty reports whether the payload carries no data at all.
func (d *NodeData) IsEmpty() bool {
	return !d.HasReservedKeys() && len(d.Extra) == 0
}

func (d *NodeData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch k {
		case "text":
			// A non-string text value degrades into the passthrough map
			// instead of failing the whole payload.
			if err := json.Unmarshal(v, &d.Text); err != nil {
				d.putExtra(k, v)
			}
		case "arguments":
			if err := json.Unmarshal(v, &d.Arguments); err != nil {
				d.putExtra(k, v)
			}
		case "metadata":
			if err := json.Unmarshal(v, &d.Metadata); err != nil {
				d.putExtra(k, v)
			}
		case "extraData":
			if err := json.Unmarshal(v, &d.ExtraData); err != nil {
				d.putExtra(k, v)
			}
		default:
			d.putExtra(k, v)
		}
	}
	return nil
}

func (d *NodeData) putExtra(k string, v json.RawMessage) {
	if d.Extra == nil {
		d.Extra = make(map[string]any)
	}
	var val any
	if err := json.Unmarshal(v, &val); err != nil {
		val = string(v)
	}
	d.Extra[k] = val
}

func (d NodeData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.Text != "" {
		out["text"] = d.Text
	}
	if d.Arguments != nil {
		out["arguments"] = d.Arguments
	}
	if d.Metadata != nil {
		out["metadata"] = d.Metadata
	}
	if d.ExtraData != nil {
		out["extraData"] = d.ExtraData
	}
	return json.Marshal(out)
}
