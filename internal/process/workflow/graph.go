// Package workflow evaluates the dependency graph of a process: which nodes
// are reachable, how far along the graph is, and which conditional nodes apply.
package workflow

import (
	"clarity/internal/process/models"
)

// FindNode resolves a weak node reference inside graph.
func FindNode(graph []models.WorkflowNode, id string) (models.WorkflowNode, bool) {
	for _, n := range graph {
		if n.ID == id {
			return n, true
		}
	}
	return models.WorkflowNode{}, false
}

// IsAccessible reports whether every dependency of node exists in graph and
// is completed. A node without dependencies is always accessible. A missing
// dependency counts as not completed. Graphs are assumed acyclic.
func IsAccessible(graph []models.WorkflowNode, node models.WorkflowNode) bool {
	return len(Blockers(graph, node)) == 0
}

// Blockers returns the dependency ids of node that are missing or not yet
// completed, in declaration order.
func Blockers(graph []models.WorkflowNode, node models.WorkflowNode) []string {
	var blocked []string
	for _, dep := range node.DependsOn {
		n, ok := FindNode(graph, dep)
		if !ok || !n.Completed {
			blocked = append(blocked, dep)
		}
	}
	return blocked
}

// CompletionRatio is the share of completed nodes, or 0 for an empty graph.
func CompletionRatio(graph []models.WorkflowNode) float64 {
	if len(graph) == 0 {
		return 0
	}
	completed := 0
	for _, n := range graph {
		if n.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(graph))
}
