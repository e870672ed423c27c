package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clarity/internal/process/models"
	dErrors "clarity/pkg/domain-errors"
	pstrings "clarity/pkg/platform/strings"
)

// ExtractionConfidenceThreshold is the confidence an extracted entry must
// exceed to become a form field.
const ExtractionConfidenceThreshold = 0.7

// FieldDescriptor is a field proposed by the conversational agent.
type FieldDescriptor struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Type        models.FieldType `json:"type"`
	Required    bool             `json:"required"`
	Options     []string         `json:"options,omitempty"`
	Trigger     string           `json:"trigger,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
}

// ExtractedEntry is one key/value pair read from a document.
type ExtractedEntry struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Extraction is the result of parsing one document.
type Extraction struct {
	Entries      []ExtractedEntry `json:"extractedFields"`
	DocumentType string           `json:"documentType,omitempty"`
	Summary      string           `json:"summary,omitempty"`
}

// ApplyGeneratedFields adds agent-proposed fields with empty values and
// completes the "describe your situation" checklist item.
func (s *Service) ApplyGeneratedFields(ctx context.Context, id string, descriptors []FieldDescriptor) error {
	fields := make([]models.FormField, 0, len(descriptors))
	for i, d := range descriptors {
		f, err := d.toField()
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("field %d: %s", i, err.Error()))
		}
		fields = append(fields, f)
	}
	_, _, err := s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		added := appendNewFields(p, fields)
		completeChecklistItem(p, models.ChecklistDescribeSituation)
		s.logger.InfoContext(ctx, "generated fields applied", "process_id", id, "proposed", len(fields), "added", added)
		return nil
	})
	return err
}

func (d FieldDescriptor) toField() (models.FormField, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		return models.FormField{}, fmt.Errorf("id is required")
	}
	fieldType := d.Type
	if fieldType == "" {
		fieldType = models.FieldTypeText
	}
	if !fieldType.IsValid() {
		return models.FormField{}, fmt.Errorf("unknown type %q", d.Type)
	}
	name := d.Name
	if name == "" {
		name = pstrings.FieldKey(d.Label)
	}
	return models.FormField{
		ID:          id,
		Name:        name,
		Label:       d.Label,
		Type:        fieldType,
		Required:    d.Required,
		Options:     append([]string(nil), d.Options...),
		Trigger:     d.Trigger,
		Explanation: d.Explanation,
	}, nil
}

// ApplyExtraction turns confident extracted entries into optional text
// fields attributed to the document, records the extracted data on the
// document and completes the "upload documents" checklist item. The item
// is completed even when no entry passes the threshold or the document is
// unknown.
func (s *Service) ApplyExtraction(ctx context.Context, id, documentID string, extraction Extraction) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		doc, ok := p.DocumentByID(documentID)
		if ok {
			doc.Parsed = true
			doc.ExtractedData = extractedData(extraction)
			added := appendNewFields(p, extractedFields(*doc, extraction.Entries))
			s.logger.InfoContext(ctx, "document extraction applied",
				"process_id", id,
				"document_id", documentID,
				"entries", len(extraction.Entries),
				"added", added,
			)
		} else {
			s.logger.WarnContext(ctx, "extraction for unknown document", "process_id", id, "document_id", documentID)
		}
		completeChecklistItem(p, models.ChecklistUploadDocuments)
		return nil
	})
}

func extractedFields(doc models.ProcessDocument, entries []ExtractedEntry) []models.FormField {
	var fields []models.FormField
	for _, e := range entries {
		if e.Confidence <= ExtractionConfidenceThreshold {
			continue
		}
		confidence := e.Confidence
		fields = append(fields, models.FormField{
			ID:            fmt.Sprintf("extracted-%s-%d", doc.ID, len(fields)),
			Name:          pstrings.FieldKey(e.Key),
			Label:         e.Key,
			Value:         e.Value,
			Type:          models.FieldTypeText,
			ExtractedFrom: doc.Name,
			Confidence:    &confidence,
		})
	}
	return fields
}

func extractedData(extraction Extraction) map[string]any {
	data := make(map[string]any, len(extraction.Entries)+2)
	for _, e := range extraction.Entries {
		data[e.Key] = e.Value
	}
	if extraction.DocumentType != "" {
		data["documentType"] = extraction.DocumentType
	}
	if extraction.Summary != "" {
		data["summary"] = extraction.Summary
	}
	return data
}
