package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarity/internal/process/models"
)

func TestEvaluate(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		op       models.ConditionOperator
		operand  string
		value    string
		expected bool
	}{
		{"equals matches", models.OperatorEquals, "yes", "yes", true},
		{"equals trims", models.OperatorEquals, "yes", "  yes ", true},
		{"equals differs", models.OperatorEquals, "yes", "no", false},
		{"not equals", models.OperatorNotEquals, "yes", "no", true},
		{"contains", models.OperatorContains, "work", "work visa", true},
		{"contains missing", models.OperatorContains, "study", "work visa", false},
		{"greater than", models.OperatorGreaterThan, "17", "18", true},
		{"greater than equal value", models.OperatorGreaterThan, "18", "18", false},
		{"greater than non numeric", models.OperatorGreaterThan, "17", "adult", false},
		{"less than", models.OperatorLessThan, "1000.5", "999", true},
		{"less than empty value", models.OperatorLessThan, "10", "", false},
		{"is empty", models.OperatorIsEmpty, "", "   ", true},
		{"is empty with value", models.OperatorIsEmpty, "", "x", false},
		{"is not empty", models.OperatorIsNotEmpty, "", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(models.NodeCondition{Field: "f", Operator: tt.op, Value: tt.operand}, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown operator", func(t *testing.T) {
		_, err := e.Evaluate(models.NodeCondition{Field: "f", Operator: "matches"}, "x")
		assert.ErrorIs(t, err, ErrUnknownOperator)
	})

	t.Run("operand is not evaluated as code", func(t *testing.T) {
		got, err := e.Evaluate(models.NodeCondition{Operator: models.OperatorEquals, Value: `" || true || "`}, "x")
		require.NoError(t, err)
		assert.False(t, got)
	})
}

func TestApplies(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	fields := []models.FormField{
		{ID: "f1", Name: "has_sponsor", Value: "yes"},
		{ID: "f2", Name: "age", Value: "34"},
	}

	ok, err := e.Applies(models.WorkflowNode{ID: "plain"}, fields)
	require.NoError(t, err)
	assert.True(t, ok)

	node := models.WorkflowNode{ID: "sponsor", Conditions: []models.NodeCondition{
		{Field: "has_sponsor", Operator: models.OperatorEquals, Value: "yes"},
		{Field: "age", Operator: models.OperatorGreaterThan, Value: "18"},
	}}
	ok, err = e.Applies(node, fields)
	require.NoError(t, err)
	assert.True(t, ok)

	node.Conditions = append(node.Conditions, models.NodeCondition{Field: "unknown", Operator: models.OperatorIsNotEmpty})
	ok, err = e.Applies(node, fields)
	require.NoError(t, err)
	assert.False(t, ok, "missing field reads as empty")
}

func TestStatuses(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	graph := models.DefaultWorkflow()
	graph[0].Completed = true
	graph = append(graph, models.WorkflowNode{
		ID: "node-5", Type: models.NodeTypeDecision, Label: "Sponsor letter",
		Conditions: []models.NodeCondition{{Field: "has_sponsor", Operator: models.OperatorEquals, Value: "yes"}},
	})

	statuses, err := e.Statuses(graph, nil)
	require.NoError(t, err)
	require.Len(t, statuses, 5)
	assert.Equal(t, StateComplete, statuses[0].State)
	assert.Equal(t, StateReady, statuses[1].State)
	assert.Equal(t, StateLocked, statuses[2].State)
	assert.Equal(t, []string{models.NodeDocuments}, statuses[2].BlockedBy)
	assert.Equal(t, StateSkipped, statuses[4].State)

	statuses, err = e.Statuses(graph, []models.FormField{{Name: "has_sponsor", Value: "yes"}})
	require.NoError(t, err)
	assert.Equal(t, StateReady, statuses[4].State)
}
