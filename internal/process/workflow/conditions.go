package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"clarity/internal/process/models"
)

// ErrUnknownOperator is returned for conditions with an operator outside the
// supported set.
var ErrUnknownOperator = errors.New("workflow: unknown condition operator")

// Each operator compiles to one CEL program. Operands are bound as variables
// so condition values never become part of the expression source.
var operatorExpressions = map[models.ConditionOperator]string{
	models.OperatorEquals:      `value == operand`,
	models.OperatorNotEquals:   `value != operand`,
	models.OperatorContains:    `value.contains(operand)`,
	models.OperatorGreaterThan: `numeric && value_num > operand_num`,
	models.OperatorLessThan:    `numeric && value_num < operand_num`,
	models.OperatorIsEmpty:     `size(value) == 0`,
	models.OperatorIsNotEmpty:  `size(value) > 0`,
}

// KnownOperator reports whether op can be evaluated.
func KnownOperator(op models.ConditionOperator) bool {
	_, ok := operatorExpressions[op]
	return ok
}

// Evaluator decides whether node conditions hold against a process's field
// values. Programs are compiled once per operator and cached. Safe for
// concurrent use.
type Evaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[models.ConditionOperator]cel.Program
}

// NewEvaluator builds the CEL environment used for condition checks.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.StringType),
		cel.Variable("operand", cel.StringType),
		cel.Variable("numeric", cel.BoolType),
		cel.Variable("value_num", cel.DoubleType),
		cel.Variable("operand_num", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: make(map[models.ConditionOperator]cel.Program)}, nil
}

// Applies reports whether every condition of node holds. A node without
// conditions always applies. Fields are matched by name; a missing field
// reads as an empty value.
func (e *Evaluator) Applies(node models.WorkflowNode, fields []models.FormField) (bool, error) {
	if len(node.Conditions) == 0 {
		return true, nil
	}
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, seen := values[f.Name]; !seen {
			values[f.Name] = f.Value
		}
	}
	for _, c := range node.Conditions {
		ok, err := e.Evaluate(c, values[c.Field])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate checks a single condition against a field value. Both sides are
// trimmed. Numeric comparisons are false unless both sides parse as numbers.
func (e *Evaluator) Evaluate(c models.NodeCondition, fieldValue string) (bool, error) {
	prg, err := e.program(c.Operator)
	if err != nil {
		return false, err
	}
	value := strings.TrimSpace(fieldValue)
	operand := strings.TrimSpace(c.Value)
	valueNum, errV := strconv.ParseFloat(value, 64)
	operandNum, errO := strconv.ParseFloat(operand, 64)

	out, _, err := prg.Eval(map[string]any{
		"value":       value,
		"operand":     operand,
		"numeric":     errV == nil && errO == nil,
		"value_num":   valueNum,
		"operand_num": operandNum,
	})
	if err != nil {
		return false, fmt.Errorf("eval %s: %w", c.Operator, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %s: result not bool", c.Operator)
	}
	return result, nil
}

func (e *Evaluator) program(op models.ConditionOperator) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.programs[op]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	expr, ok := operatorExpressions[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.programs[op]; hit {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	prg, err := e.env.Program(ast, cel.CostLimit(1000))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	e.programs[op] = prg
	return prg, nil
}
