package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clarity/internal/process/models"
	"clarity/internal/process/scoring"
	"clarity/internal/process/validation"
	"clarity/internal/process/workflow"
	dErrors "clarity/pkg/domain-errors"
)

// Review is the read-only pre-submission view of a process.
type Review struct {
	Process   *models.Process       `json:"process"`
	Score     scoring.Breakdown     `json:"score"`
	Workflow  []workflow.NodeStatus `json:"workflow"`
	CanSubmit bool                  `json:"canSubmit"`
}

// Validate regenerates issues and risk flags from scratch, scores them with
// the full formula and stores all three with the update time in one step.
// Unknown ids return found=false.
func (s *Service) Validate(ctx context.Context, id string) (*models.Process, bool) {
	p, found, _ := s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		s.applyValidation(ctx, p)
		return nil
	})
	return p, found
}

var tracer = otel.Tracer("clarity/process/service")

func (s *Service) applyValidation(ctx context.Context, p *models.Process) validation.Result {
	ctx, span := tracer.Start(ctx, "process.validate")
	defer span.End()

	res := validation.Evaluate(p)
	score := scoring.Full(p, scoring.Snapshot{Issues: res.Issues, RiskFlags: res.RiskFlags})
	p.ValidationIssues = res.Issues
	p.RiskFlags = res.RiskFlags
	p.ReadinessScore = score

	s.metrics.ObserveValidation(score)
	errs, warnings, _ := models.CountBySeverity(res.Issues)
	span.SetAttributes(
		attribute.String("process_id", p.ID),
		attribute.Int("errors", errs),
		attribute.Int("warnings", warnings),
		attribute.Int("score", score),
	)
	s.logger.DebugContext(ctx, "process validated",
		"process_id", p.ID,
		"errors", errs,
		"warnings", warnings,
		"risk_flags", len(res.RiskFlags),
		"score", score,
	)
	return res
}

// Review explains the stored score and derives node states. It does not
// re-run validation.
func (s *Service) Review(ctx context.Context, id string) (*Review, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	statuses, err := s.evaluator.Statuses(p.WorkflowGraph, p.Fields)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate workflow conditions")
	}
	errs, _, _ := models.CountBySeverity(p.ValidationIssues)
	return &Review{
		Process:   p,
		Score:     scoring.Explain(p, scoring.Stored(p)),
		Workflow:  statuses,
		CanSubmit: errs == 0 && p.Status == models.StatusReady,
	}, nil
}

// WorkflowStatus derives the state of every workflow node.
func (s *Service) WorkflowStatus(ctx context.Context, id string) ([]workflow.NodeStatus, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	statuses, err := s.evaluator.Statuses(p.WorkflowGraph, p.Fields)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate workflow conditions")
	}
	return statuses, nil
}

// CompleteChecklistItem marks one checklist item completed. Items are never
// reverted and have no dependencies.
func (s *Service) CompleteChecklistItem(ctx context.Context, id, itemID string) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		if !completeChecklistItem(p, itemID) {
			return errNoChange
		}
		return nil
	})
}

func completeChecklistItem(p *models.Process, itemID string) bool {
	item, ok := p.ChecklistItemByID(itemID)
	if !ok {
		return false
	}
	item.Completed = true
	return true
}

// CompleteNode marks a workflow node completed once all of its dependencies
// are. A locked node is rejected with an invalid state error. Unknown
// process or node ids are ignored.
func (s *Service) CompleteNode(ctx context.Context, id, nodeID string) error {
	_, _, err := s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		node, ok := p.NodeByID(nodeID)
		if !ok || node.Completed {
			return errNoChange
		}
		if blocked := workflow.Blockers(p.WorkflowGraph, *node); len(blocked) > 0 {
			return dErrors.New(dErrors.CodeInvalidState, "workflow node is locked by: "+strings.Join(blocked, ", "))
		}
		node.Completed = true
		return nil
	})
	return err
}

// MarkReady runs a full validation and moves the process to ready when no
// error-severity issue remains, completing the review checklist item. The
// validation results are stored either way.
func (s *Service) MarkReady(ctx context.Context, id string) error {
	blocked := false
	_, _, err := s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		res := s.applyValidation(ctx, p)
		if res.HasErrors() {
			blocked = true
			return nil
		}
		p.Status = models.StatusReady
		completeChecklistItem(p, models.ChecklistReview)
		return nil
	})
	if err != nil {
		return err
	}
	if blocked {
		return dErrors.New(dErrors.CodeInvalidState, "process has validation errors")
	}
	return nil
}
