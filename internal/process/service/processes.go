package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clarity/internal/process/models"
	dErrors "clarity/pkg/domain-errors"
)

// Create builds a draft process from the creation template, places it first
// in the collection and makes it current.
func (s *Service) Create(ctx context.Context, processType, title, description string) *models.Process {
	processType = strings.TrimSpace(processType)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock(ctx)
	p := models.NewProcess(s.newID(), processType, strings.TrimSpace(title), description, now, s.templates.Nodes(processType)...)
	s.processes = append([]*models.Process{p}, s.processes...)
	s.currentID = p.ID
	s.persistLocked(ctx)

	s.metrics.IncrementProcessCreated()
	s.logger.InfoContext(ctx, "process created", "process_id", p.ID, "process_type", processType, "nodes", len(p.WorkflowGraph))
	return p.Clone()
}

// Get returns a copy of the process with id.
func (s *Service) Get(_ context.Context, id string) (*models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(id)
	if p == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "process not found")
	}
	return p.Clone(), nil
}

// List returns copies of all processes, most recent first.
func (s *Service) List(_ context.Context) []*models.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Process, len(s.processes))
	for i, p := range s.processes {
		out[i] = p.Clone()
	}
	return out
}

// Current returns a copy of the current process, if one is selected.
func (s *Service) Current(_ context.Context) (*models.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(s.currentID)
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// SetCurrent selects the current process. An empty id clears the selection;
// an unknown id leaves it unchanged and reports false.
func (s *Service) SetCurrent(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.currentID = ""
		return true
	}
	if s.findLocked(id) == nil {
		return false
	}
	s.currentID = id
	return true
}

// Update applies a shallow patch. Each set attribute replaces the stored one
// as a whole. Unknown ids are ignored.
func (s *Service) Update(ctx context.Context, id string, patch models.Patch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}
	_, _, err := s.mutate(ctx, id, func(p *models.Process, now time.Time) error {
		patch.Apply(p, now)
		return nil
	})
	return err
}

func validatePatch(patch models.Patch) error {
	if patch.Status != nil && !patch.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid status: "+string(*patch.Status))
	}
	if patch.ReadinessScore != nil && (*patch.ReadinessScore < 0 || *patch.ReadinessScore > 100) {
		return dErrors.New(dErrors.CodeValidation, "readiness score must be between 0 and 100")
	}
	if patch.Persona != nil {
		if _, err := models.ParsePersonaType(string(patch.Persona.Type)); err != nil {
			return err
		}
	}
	if patch.Fields != nil {
		seen := make(map[string]struct{}, len(*patch.Fields))
		for _, f := range *patch.Fields {
			if _, dup := seen[f.ID]; dup {
				return dErrors.New(dErrors.CodeValidation, "duplicate field id: "+f.ID)
			}
			seen[f.ID] = struct{}{}
			if f.Type != "" && !f.Type.IsValid() {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("field %s: invalid type %q", f.ID, f.Type))
			}
		}
	}
	if patch.WorkflowGraph != nil {
		for _, n := range *patch.WorkflowGraph {
			if strings.TrimSpace(n.ID) == "" {
				return dErrors.New(dErrors.CodeValidation, "workflow node id is required")
			}
			if !n.Type.IsValid() {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("node %s: invalid type %q", n.ID, n.Type))
			}
		}
	}
	if patch.ValidationIssues != nil {
		for _, issue := range *patch.ValidationIssues {
			if !issue.Severity.IsValid() {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("issue %s: invalid severity %q", issue.ID, issue.Severity))
			}
		}
	}
	if patch.RiskFlags != nil {
		for _, flag := range *patch.RiskFlags {
			if !flag.Category.IsValid() || !flag.Severity.IsValid() {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("risk flag %s: invalid category or severity", flag.ID))
			}
		}
	}
	return nil
}

// Delete removes the process and clears the current selection if it pointed
// at it. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.processes {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.processes = append(s.processes[:idx], s.processes[idx+1:]...)
	if s.currentID == id {
		s.currentID = ""
	}
	s.persistLocked(ctx)

	s.metrics.IncrementProcessDeleted()
	s.logger.InfoContext(ctx, "process deleted", "process_id", id)
}
