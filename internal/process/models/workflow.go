package models

// NodeType classifies a workflow step.
type NodeType string

const (
	NodeTypeQuestion   NodeType = "question"
	NodeTypeDocument   NodeType = "document"
	NodeTypeField      NodeType = "field"
	NodeTypeValidation NodeType = "validation"
	NodeTypeDecision   NodeType = "decision"
)

// IsValid reports whether t is a known node type.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeQuestion, NodeTypeDocument, NodeTypeField, NodeTypeValidation, NodeTypeDecision:
		return true
	}
	return false
}

// ConditionOperator compares a field value against a condition value.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorIsEmpty     ConditionOperator = "is_empty"
	OperatorIsNotEmpty  ConditionOperator = "is_not_empty"
)

// NodeCondition gates whether a node applies, based on a field value looked
// up by field name.
type NodeCondition struct {
	Field       string            `json:"field" yaml:"field"`
	Operator    ConditionOperator `json:"operator" yaml:"operator"`
	Value       string            `json:"value,omitempty" yaml:"value,omitempty"`
	Explanation string            `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// WorkflowNode is one step in a process's dependency graph. DependsOn holds
// weak ids of nodes in the same process.
type WorkflowNode struct {
	ID         string          `json:"id" yaml:"id"`
	Type       NodeType        `json:"type" yaml:"type"`
	Label      string          `json:"label" yaml:"label"`
	Completed  bool            `json:"completed" yaml:"-"`
	Required   bool            `json:"required" yaml:"required"`
	DependsOn  []string        `json:"dependsOn,omitempty" yaml:"depends_on,omitempty"`
	Conditions []NodeCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func (n WorkflowNode) clone() WorkflowNode {
	n.DependsOn = cloneStrings(n.DependsOn)
	if n.Conditions != nil {
		conds := make([]NodeCondition, len(n.Conditions))
		copy(conds, n.Conditions)
		n.Conditions = conds
	}
	n.Metadata = cloneAnyMap(n.Metadata)
	return n
}

// Clone returns a deep copy of the node.
func (n WorkflowNode) Clone() WorkflowNode {
	return n.clone()
}
