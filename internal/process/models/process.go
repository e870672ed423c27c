package models

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle stage of a process. The model does not enforce
// ordering between stages; callers may set any value.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusSubmitted  Status = "submitted"
)

// IsValid reports whether s is one of the known lifecycle stages.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusReady, StatusSubmitted:
		return true
	}
	return false
}

// Process is the aggregate root for one user-initiated bureaucratic task.
//
// Invariants:
//   - ID is generated at creation and never changes
//   - CreatedAt is fixed at creation; UpdatedAt moves on every mutation
//   - Field IDs are unique within the process
//   - ValidationIssues and RiskFlags are derived: they are replaced as a whole
//     by validation and never edited item by item
//   - ReadinessScore stays within [0, 100]
//
// Every collection is owned by the process. DependsOn and FieldID references
// are weak ids resolved against the same process; a miss means the reference
// is stale and callers treat it as absent.
type Process struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Status           Status            `json:"status"`
	ReadinessScore   int               `json:"readinessScore"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Deadline         *time.Time        `json:"deadline,omitempty"`
	Fields           []FormField       `json:"fields"`
	Documents        []ProcessDocument `json:"documents"`
	ValidationIssues []ValidationIssue `json:"validationIssues"`
	ChecklistItems   []ChecklistItem   `json:"checklistItems"`
	WorkflowGraph    []WorkflowNode    `json:"workflowGraph"`
	Persona          Persona           `json:"persona"`
	RiskFlags        []RiskFlag        `json:"riskFlags"`
	ImpactMetrics    ImpactMetrics     `json:"impactMetrics"`
	DataExpiry       DataExpiry        `json:"dataExpiry"`
	VoiceEnabled     bool              `json:"voiceEnabled"`
	// ExplainWhyLog is kept verbatim for records written by the web client.
	ExplainWhyLog    []json.RawMessage `json:"explainWhyLog,omitempty"`
}

// FieldByID resolves a weak field reference.
func (p *Process) FieldByID(id string) (*FormField, bool) {
	for i := range p.Fields {
		if p.Fields[i].ID == id {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// DocumentByID resolves a document by id.
func (p *Process) DocumentByID(id string) (*ProcessDocument, bool) {
	for i := range p.Documents {
		if p.Documents[i].ID == id {
			return &p.Documents[i], true
		}
	}
	return nil, false
}

// ChecklistItemByID resolves a checklist item by id.
func (p *Process) ChecklistItemByID(id string) (*ChecklistItem, bool) {
	for i := range p.ChecklistItems {
		if p.ChecklistItems[i].ID == id {
			return &p.ChecklistItems[i], true
		}
	}
	return nil, false
}

// NodeByID resolves a weak workflow node reference.
func (p *Process) NodeByID(id string) (*WorkflowNode, bool) {
	for i := range p.WorkflowGraph {
		if p.WorkflowGraph[i].ID == id {
			return &p.WorkflowGraph[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can never alias store-owned state.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	c := *p
	c.Deadline = cloneTime(p.Deadline)
	c.Fields = cloneSlice(p.Fields, FormField.clone)
	c.Documents = cloneSlice(p.Documents, ProcessDocument.clone)
	c.ValidationIssues = cloneSlice(p.ValidationIssues, ValidationIssue.clone)
	c.ChecklistItems = cloneSlice(p.ChecklistItems, func(i ChecklistItem) ChecklistItem { return i })
	c.WorkflowGraph = cloneSlice(p.WorkflowGraph, WorkflowNode.clone)
	c.RiskFlags = cloneSlice(p.RiskFlags, RiskFlag.clone)
	c.DataExpiry = p.DataExpiry.clone()
	c.ExplainWhyLog = cloneSlice(p.ExplainWhyLog, func(m json.RawMessage) json.RawMessage {
		return append(json.RawMessage(nil), m...)
	})
	return &c
}

// Patch carries a shallow update. Every non-nil attribute replaces the
// process attribute as a whole; slices are never merged.
type Patch struct {
	Type             *string            `json:"type,omitempty"`
	Title            *string            `json:"title,omitempty"`
	Description      *string            `json:"description,omitempty"`
	Status           *Status            `json:"status,omitempty"`
	ReadinessScore   *int               `json:"readinessScore,omitempty"`
	Deadline         *time.Time         `json:"deadline,omitempty"`
	Fields           *[]FormField       `json:"fields,omitempty"`
	Documents        *[]ProcessDocument `json:"documents,omitempty"`
	ValidationIssues *[]ValidationIssue `json:"validationIssues,omitempty"`
	ChecklistItems   *[]ChecklistItem   `json:"checklistItems,omitempty"`
	WorkflowGraph    *[]WorkflowNode    `json:"workflowGraph,omitempty"`
	Persona          *Persona           `json:"persona,omitempty"`
	RiskFlags        *[]RiskFlag        `json:"riskFlags,omitempty"`
	ImpactMetrics    *ImpactMetrics     `json:"impactMetrics,omitempty"`
	DataExpiry       *DataExpiry        `json:"dataExpiry,omitempty"`
	VoiceEnabled     *bool              `json:"voiceEnabled,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (u Patch) IsEmpty() bool {
	return u == Patch{}
}

// Apply writes the patch onto p and stamps UpdatedAt.
func (u Patch) Apply(p *Process, now time.Time) {
	if u.Type != nil {
		p.Type = *u.Type
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ReadinessScore != nil {
		p.ReadinessScore = *u.ReadinessScore
	}
	if u.Deadline != nil {
		p.Deadline = cloneTime(u.Deadline)
	}
	if u.Fields != nil {
		p.Fields = cloneSlice(*u.Fields, func(f FormField) FormField { return f.clone().WithDefaults() })
	}
	if u.Documents != nil {
		p.Documents = cloneSlice(*u.Documents, ProcessDocument.clone)
	}
	if u.ValidationIssues != nil {
		p.ValidationIssues = cloneSlice(*u.ValidationIssues, ValidationIssue.clone)
	}
	if u.ChecklistItems != nil {
		p.ChecklistItems = cloneSlice(*u.ChecklistItems, func(i ChecklistItem) ChecklistItem { return i })
	}
	if u.WorkflowGraph != nil {
		p.WorkflowGraph = cloneSlice(*u.WorkflowGraph, WorkflowNode.clone)
	}
	if u.Persona != nil {
		p.Persona = *u.Persona
	}
	if u.RiskFlags != nil {
		p.RiskFlags = cloneSlice(*u.RiskFlags, RiskFlag.clone)
	}
	if u.ImpactMetrics != nil {
		p.ImpactMetrics = *u.ImpactMetrics
	}
	if u.DataExpiry != nil {
		p.DataExpiry = u.DataExpiry.clone()
	}
	if u.VoiceEnabled != nil {
		p.VoiceEnabled = *u.VoiceEnabled
	}
	p.UpdatedAt = now
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
