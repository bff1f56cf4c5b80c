package domain

import "fmt"

// FindNodeByID searches the node forest depth-first in pre-order: a node's
// sub-nodes are searched before its next sibling, and the first id match wins.
// The returned path is the ordered chain of node ids from a top-level node
// down to and including the match. The bool reports whether the id was found.
func FindNodeByID(nodes []TraceNode, id string) (*TraceNode, []string, bool) {
	for i := range nodes {
		n := &nodes[i]
		if n.ID == id {
			return n, []string{n.ID}, true
		}
		if match, path, ok := FindNodeByID(n.Nodes, id); ok {
			return match, append([]string{n.ID}, path...), true
		}
	}
	return nil, nil, false
}

// CountNodes returns the total number of nodes in the forest, descendants
// included. An empty or nil forest counts zero.
func CountNodes(nodes []TraceNode) int {
	total := 0
	for i := range nodes {
		total += 1 + CountNodes(nodes[i].Nodes)
	}
	return total
}

// CountAllDescendants returns the number of nodes below n, excluding n itself.
func CountAllDescendants(n *TraceNode) int {
	return CountNodes(n.Nodes)
}

// ValidateNodeIDs checks the trace-wide invariant that node ids are unique
// across every nesting level. It returns the first duplicate found.
func ValidateNodeIDs(nodes []TraceNode) error {
	seen := make(map[string]struct{}, CountNodes(nodes))
	return checkNodeIDs(nodes, seen)
}

func checkNodeIDs(nodes []TraceNode, seen map[string]struct{}) error {
	for i := range nodes {
		id := nodes[i].ID
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate node id: %s", id)
		}
		seen[id] = struct{}{}
		if err := checkNodeIDs(nodes[i].Nodes, seen); err != nil {
			return err
		}
	}
	return nil
}

// IsSuccessStatus reports whether the status means the step finished cleanly.
func IsSuccessStatus(s NodeStatus) bool {
	return s == StatusCompleted
}

// IsFailureStatus reports whether the status means the step failed or was
// abandoned. Unrecognized statuses classify as none of the three predicates.
func IsFailureStatus(s NodeStatus) bool {
	return s == StatusFailed || s == StatusCancelled
}

// IsRunningStatus reports whether the step is still in flight.
func IsRunningStatus(s NodeStatus) bool {
	return s == StatusRunning
}
