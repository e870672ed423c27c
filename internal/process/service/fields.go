package service

import (
	"context"
	"time"

	"clarity/internal/process/models"
	"clarity/internal/process/scoring"
)

// AddFields appends the fields whose id is not yet present. An existing
// field is never overwritten, and within one batch the first occurrence of
// an id wins. Untyped fields are stored as text.
func (s *Service) AddFields(ctx context.Context, id string, fields []models.FormField) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		appendNewFields(p, fields)
		return nil
	})
}

// AddDocument appends doc. Ids are expected to be unique at generation time
// and are not checked; an empty id is generated and a zero upload time is
// set to now. Returns the stored document.
func (s *Service) AddDocument(ctx context.Context, id string, doc models.ProcessDocument) (models.ProcessDocument, bool) {
	var stored models.ProcessDocument
	_, found, _ := s.mutate(ctx, id, func(p *models.Process, now time.Time) error {
		if doc.ID == "" {
			doc.ID = s.newID()
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		p.Documents = append(p.Documents, doc.Clone())
		stored = p.Documents[len(p.Documents)-1]
		return nil
	})
	return stored.Clone(), found
}

// UpdateFieldValue sets a field value, clears its validated mark and
// recomputes the lightweight score against the stored issues, which may
// predate this edit.
func (s *Service) UpdateFieldValue(ctx context.Context, id, fieldID, value string) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		f, ok := p.FieldByID(fieldID)
		if !ok {
			return errNoChange
		}
		f.Value = value
		f.Validated = false
		p.ReadinessScore = scoring.Lightweight(p, scoring.Stored(p))
		return nil
	})
}

func appendNewFields(p *models.Process, fields []models.FormField) int {
	existing := make(map[string]struct{}, len(p.Fields)+len(fields))
	for _, f := range p.Fields {
		existing[f.ID] = struct{}{}
	}
	added := 0
	for _, f := range fields {
		if _, ok := existing[f.ID]; ok {
			continue
		}
		existing[f.ID] = struct{}{}
		p.Fields = append(p.Fields, f.Clone().WithDefaults())
		added++
	}
	return added
}
