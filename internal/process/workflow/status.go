package workflow

import (
	"fmt"

	"clarity/internal/process/models"
)

// State is the derived display state of a node.
type State string

const (
	StateComplete State = "complete"
	StateReady    State = "ready"
	StateLocked   State = "locked"
	StateSkipped  State = "skipped"
)

// NodeStatus is a read-only view of one node for presentation.
type NodeStatus struct {
	NodeID    string   `json:"nodeId"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	State     State    `json:"state"`
	BlockedBy []string `json:"blockedBy,omitempty"`
}

// Statuses derives the state of every node in graph. Completed wins over
// everything; a node whose conditions are not met is skipped; otherwise the
// node is ready or locked by its unmet dependencies.
func (e *Evaluator) Statuses(graph []models.WorkflowNode, fields []models.FormField) ([]NodeStatus, error) {
	out := make([]NodeStatus, 0, len(graph))
	for _, n := range graph {
		st := NodeStatus{NodeID: n.ID, Label: n.Label, Type: string(n.Type), Required: n.Required}
		switch {
		case n.Completed:
			st.State = StateComplete
		default:
			applies, err := e.Applies(n, fields)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
			if !applies {
				st.State = StateSkipped
				break
			}
			if blocked := Blockers(graph, n); len(blocked) > 0 {
				st.State = StateLocked
				st.BlockedBy = blocked
			} else {
				st.State = StateReady
			}
		}
		out = append(out, st)
	}
	return out, nil
}
