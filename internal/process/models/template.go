package models

import "time"

// Template node ids. node-1 is the only node without dependencies.
const (
	NodeConsultation = "node-1"
	NodeDocuments    = "node-2"
	NodeForm         = "node-3"
	NodeValidation   = "node-4"
)

// DefaultChecklist returns the four milestones every process starts with.
func DefaultChecklist() []ChecklistItem {
	return []ChecklistItem{
		{ID: ChecklistDescribeSituation, Title: "Describe your situation", Required: true},
		{ID: ChecklistUploadDocuments, Title: "Upload required documents", Required: true},
		{ID: ChecklistCompleteFields, Title: "Complete form fields", Required: true},
		{ID: ChecklistReview, Title: "Review and validate", Required: true},
	}
}

// DefaultWorkflow returns the linear four-step graph every process starts with.
func DefaultWorkflow() []WorkflowNode {
	return []WorkflowNode{
		{ID: NodeConsultation, Type: NodeTypeQuestion, Label: "Initial consultation", Required: true},
		{ID: NodeDocuments, Type: NodeTypeDocument, Label: "Document upload", Required: true, DependsOn: []string{NodeConsultation}},
		{ID: NodeForm, Type: NodeTypeField, Label: "Form completion", Required: true, DependsOn: []string{NodeDocuments}},
		{ID: NodeValidation, Type: NodeTypeValidation, Label: "Final validation", Required: true, DependsOn: []string{NodeForm}},
	}
}

// NewProcess builds a draft process from the creation template. extraNodes
// are appended after the template nodes.
func NewProcess(id, processType, title, description string, now time.Time, extraNodes ...WorkflowNode) *Process {
	graph := DefaultWorkflow()
	for _, n := range extraNodes {
		c := n.clone()
		c.Completed = false
		graph = append(graph, c)
	}
	return &Process{
		ID:               id,
		Type:             processType,
		Title:            title,
		Description:      description,
		Status:           StatusDraft,
		ReadinessScore:   0,
		CreatedAt:        now,
		UpdatedAt:        now,
		Fields:           []FormField{},
		Documents:        []ProcessDocument{},
		ValidationIssues: []ValidationIssue{},
		ChecklistItems:   DefaultChecklist(),
		WorkflowGraph:    graph,
		Persona:          DefaultPersona(),
		RiskFlags:        []RiskFlag{},
		ImpactMetrics:    ImpactMetrics{},
		DataExpiry:       DataExpiry{},
		VoiceEnabled:     false,
	}
}

// Normalize replaces nil collections with empty ones so the JSON form always
// carries arrays, and types untyped fields as text. Used on records decoded
// from storage.
func (p *Process) Normalize() {
	if p.Fields == nil {
		p.Fields = []FormField{}
	}
	for i := range p.Fields {
		p.Fields[i] = p.Fields[i].WithDefaults()
	}
	if p.Documents == nil {
		p.Documents = []ProcessDocument{}
	}
	if p.ValidationIssues == nil {
		p.ValidationIssues = []ValidationIssue{}
	}
	if p.ChecklistItems == nil {
		p.ChecklistItems = []ChecklistItem{}
	}
	if p.WorkflowGraph == nil {
		p.WorkflowGraph = []WorkflowNode{}
	}
	if p.RiskFlags == nil {
		p.RiskFlags = []RiskFlag{}
	}
}
