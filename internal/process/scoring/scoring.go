// Package scoring computes the 0-100 readiness score of a process.
//
// Two formulas coexist. Full scores a freshly validated snapshot and is the
// authoritative value. Lightweight is the cheap recompute after a single
// field edit; it reuses whatever issues are stored on the process, which
// may predate the edit. Run a full validation before trusting the score for
// a submission decision.
package scoring

import (
	"math"

	"clarity/internal/process/models"
	"clarity/internal/process/validation"
	"clarity/internal/process/workflow"
)

const (
	graphWeight    = 30.0
	fieldWeight    = 50.0
	documentWeight = 20.0

	errorPenalty   = 15.0
	warningPenalty = 5.0

	highRiskPenalty   = 10
	mediumRiskPenalty = 5
	personaPenalty    = 10

	// missing documents still earn part of the document band
	noDocumentScore = 0.3

	requiredFieldWeight = 20
	optionalFieldWeight = 10
	noFieldsWithDocs    = 50

	lightErrorPenalty   = 10
	lightWarningPenalty = 5
)

// Snapshot is the validation state a score is computed against.
type Snapshot struct {
	Issues    []models.ValidationIssue
	RiskFlags []models.RiskFlag
}

// Stored returns the snapshot currently persisted on p.
func Stored(p *models.Process) Snapshot {
	return Snapshot{Issues: p.ValidationIssues, RiskFlags: p.RiskFlags}
}

// Breakdown exposes the components of a full score.
type Breakdown struct {
	GraphCompletion float64 `json:"graphCompletion"`
	FieldCompletion float64 `json:"fieldCompletion"`
	DocumentScore   float64 `json:"documentScore"`
	Base            float64 `json:"base"`
	Errors          int     `json:"errors"`
	Warnings        int     `json:"warnings"`
	HighRisks       int     `json:"highRisks"`
	MediumRisks     int     `json:"mediumRisks"`
	PersonaRisk     bool    `json:"personaRisk"`
	Score           int     `json:"score"`
}

// Explain computes the full score of p against snap with its components.
func Explain(p *models.Process, snap Snapshot) Breakdown {
	b := Breakdown{
		GraphCompletion: workflow.CompletionRatio(p.WorkflowGraph),
		FieldCompletion: requiredFieldCompletion(p.Fields),
		DocumentScore:   noDocumentScore,
	}
	if len(p.Documents) > 0 {
		b.DocumentScore = 1.0
	}
	b.Base = b.GraphCompletion*graphWeight + b.FieldCompletion*fieldWeight + b.DocumentScore*documentWeight
	b.Errors, b.Warnings, _ = models.CountBySeverity(snap.Issues)

	score := int(math.Round(math.Max(0, b.Base-errorPenalty*float64(b.Errors)-warningPenalty*float64(b.Warnings))))

	for _, f := range snap.RiskFlags {
		// the persona flag carries its own penalty
		if f.ID == validation.RiskUnauthorizedPersona {
			b.PersonaRisk = true
			continue
		}
		switch f.Severity {
		case models.RiskHigh:
			b.HighRisks++
		case models.RiskMedium:
			b.MediumRisks++
		}
	}
	score = max(0, score-highRiskPenalty*b.HighRisks-mediumRiskPenalty*b.MediumRisks)
	if b.PersonaRisk {
		score = max(0, score-personaPenalty)
	}
	b.Score = clamp(score)
	return b
}

// Full is the authoritative readiness score of p against snap.
func Full(p *models.Process, snap Snapshot) int {
	return Explain(p, snap).Score
}

// Lightweight weights each field by whether it is required and subtracts
// penalties for the issues in snap. A process without fields scores 50 when
// it has documents and 0 otherwise.
func Lightweight(p *models.Process, snap Snapshot) int {
	var filled, total int
	for _, f := range p.Fields {
		w := optionalFieldWeight
		if f.Required {
			w = requiredFieldWeight
		}
		total += w
		if f.IsFilled() {
			filled += w
		}
	}

	var score int
	switch {
	case total > 0:
		score = int(math.Round(100 * float64(filled) / float64(total)))
	case len(p.Documents) > 0:
		score = noFieldsWithDocs
	}

	errors, warnings, _ := models.CountBySeverity(snap.Issues)
	return clamp(score - lightErrorPenalty*errors - lightWarningPenalty*warnings)
}

func requiredFieldCompletion(fields []models.FormField) float64 {
	var required, filled int
	for _, f := range fields {
		if !f.Required {
			continue
		}
		required++
		if f.IsFilled() {
			filled++
		}
	}
	if required == 0 {
		return 0
	}
	return float64(filled) / float64(required)
}

func clamp(score int) int {
	return min(100, max(0, score))
}
