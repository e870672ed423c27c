package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarity/internal/process/models"
)

func TestIsAccessible(t *testing.T) {
	t.Run("template root is accessible and the chain is locked", func(t *testing.T) {
		graph := models.DefaultWorkflow()
		assert.True(t, IsAccessible(graph, graph[0]))
		assert.False(t, IsAccessible(graph, graph[1]))
		assert.False(t, IsAccessible(graph, graph[3]))
	})

	t.Run("completing a dependency unlocks the next node", func(t *testing.T) {
		graph := models.DefaultWorkflow()
		graph[0].Completed = true
		assert.True(t, IsAccessible(graph, graph[1]))
		assert.False(t, IsAccessible(graph, graph[2]))
	})

	t.Run("missing dependency is never satisfied", func(t *testing.T) {
		node := models.WorkflowNode{ID: "n", DependsOn: []string{"missing-id"}}
		graph := []models.WorkflowNode{node}
		assert.False(t, IsAccessible(graph, node))
		assert.Equal(t, []string{"missing-id"}, Blockers(graph, node))
	})

	t.Run("all dependencies must complete", func(t *testing.T) {
		graph := []models.WorkflowNode{
			{ID: "a", Completed: true},
			{ID: "b"},
			{ID: "c", DependsOn: []string{"a", "b"}},
		}
		assert.False(t, IsAccessible(graph, graph[2]))
		assert.Equal(t, []string{"b"}, Blockers(graph, graph[2]))
		graph[1].Completed = true
		assert.True(t, IsAccessible(graph, graph[2]))
	})
}

func TestCompletionRatio(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRatio(nil))

	graph := models.DefaultWorkflow()
	assert.Equal(t, 0.0, CompletionRatio(graph))
	graph[0].Completed = true
	assert.InDelta(t, 0.25, CompletionRatio(graph), 1e-9)
	for i := range graph {
		graph[i].Completed = true
	}
	assert.Equal(t, 1.0, CompletionRatio(graph))
}

func TestFindNode(t *testing.T) {
	graph := models.DefaultWorkflow()
	n, ok := FindNode(graph, models.NodeForm)
	require.True(t, ok)
	assert.Equal(t, "Form completion", n.Label)

	_, ok = FindNode(graph, "node-99")
	assert.False(t, ok)
}
