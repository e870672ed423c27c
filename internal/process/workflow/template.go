package workflow

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"clarity/internal/process/models"
	"clarity/pkg/platform/strings"
)

// Templates holds extra workflow nodes per process type. They are appended
// after the creation template nodes when a process of that type is created.
type Templates struct {
	byType map[string][]models.WorkflowNode
}

type templateFile struct {
	Templates map[string]templateDefinition `yaml:"templates"`
}

type templateDefinition struct {
	Nodes []models.WorkflowNode `yaml:"nodes"`
}

// ParseTemplatesYAML decodes and validates template extensions.
func ParseTemplatesYAML(data []byte) (*Templates, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Templates{byType: map[string][]models.WorkflowNode{}}, nil
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("workflow: decode templates: %w", err)
	}
	t := &Templates{byType: make(map[string][]models.WorkflowNode, len(file.Templates))}
	for processType, def := range file.Templates {
		nodes := make([]models.WorkflowNode, 0, len(def.Nodes))
		for _, n := range def.Nodes {
			n = n.Clone()
			n.Completed = false
			n.DependsOn = strings.DedupeAndTrim(n.DependsOn)
			nodes = append(nodes, n)
		}
		if err := validateExtension(processType, nodes); err != nil {
			return nil, err
		}
		t.byType[processType] = nodes
	}
	return t, nil
}

// LoadTemplatesReader reads template extensions from r.
func LoadTemplatesReader(r io.Reader) (*Templates, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("workflow: read templates: %w", err)
	}
	return ParseTemplatesYAML(content)
}

// LoadTemplatesFile loads template extensions from path.
func LoadTemplatesFile(path string) (*Templates, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	t, err := ParseTemplatesYAML(content)
	if err != nil {
		return nil, fmt.Errorf("workflow: %s: %w", path, err)
	}
	return t, nil
}

// Nodes returns copies of the extra nodes for processType. Nil-safe.
func (t *Templates) Nodes(processType string) []models.WorkflowNode {
	if t == nil {
		return nil
	}
	nodes := t.byType[processType]
	if len(nodes) == 0 {
		return nil
	}
	out := make([]models.WorkflowNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Types lists the process types with extensions.
func (t *Templates) Types() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.byType))
	for k := range t.byType {
		out = append(out, k)
	}
	return out
}

func validateExtension(processType string, extra []models.WorkflowNode) error {
	graph := append(models.DefaultWorkflow(), extra...)
	seen := make(map[string]struct{}, len(graph))
	for _, n := range graph {
		if n.ID == "" {
			return fmt.Errorf("workflow template %s: node id is required", processType)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("workflow template %s: duplicate node id %s", processType, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, n := range extra {
		if !n.Type.IsValid() {
			return fmt.Errorf("workflow template %s: node %s has unknown type %q", processType, n.ID, n.Type)
		}
		for _, dep := range n.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("workflow template %s: dependency %s -> %s references unknown node", processType, n.ID, dep)
			}
		}
		for _, c := range n.Conditions {
			if c.Field == "" {
				return fmt.Errorf("workflow template %s: node %s has a condition without field", processType, n.ID)
			}
			if !KnownOperator(c.Operator) {
				return fmt.Errorf("workflow template %s: node %s: %w: %q", processType, n.ID, ErrUnknownOperator, c.Operator)
			}
		}
	}
	if cycle := findCycle(graph); cycle != "" {
		return fmt.Errorf("workflow template %s: dependency cycle through %s", processType, cycle)
	}
	return nil
}

// findCycle returns the id of a node on a dependency cycle, or "".
func findCycle(graph []models.WorkflowNode) string {
	const (
		unvisited = iota
		visiting
		done
	)
	deps := make(map[string][]string, len(graph))
	for _, n := range graph {
		deps[n.ID] = n.DependsOn
	}
	state := make(map[string]int, len(graph))
	var visit func(id string) string
	visit = func(id string) string {
		switch state[id] {
		case visiting:
			return id
		case done:
			return ""
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if c := visit(dep); c != "" {
				return c
			}
		}
		state[id] = done
		return ""
	}
	for _, n := range graph {
		if c := visit(n.ID); c != "" {
			return c
		}
	}
	return ""
}
