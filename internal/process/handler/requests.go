package handler

import (
	"strings"

	"clarity/internal/process/models"
	"clarity/internal/process/service"
	dErrors "clarity/pkg/domain-errors"
)

const (
	maxTitleLength = 200
	maxBatchSize   = 200
)

// CreateProcessRequest is the body of POST /processes.
type CreateProcessRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *CreateProcessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Type = strings.TrimSpace(r.Type)
	r.Title = strings.TrimSpace(r.Title)
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	return nil
}

// SetCurrentRequest is the body of PUT /processes/current. An empty id
// clears the selection.
type SetCurrentRequest struct {
	ID string `json:"id"`
}

func (r *SetCurrentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ID = strings.TrimSpace(r.ID)
	return nil
}

// PatchProcessRequest is the body of PATCH /processes/{id}. Each present
// attribute replaces the stored one.
type PatchProcessRequest struct {
	models.Patch
}

func (r *PatchProcessRequest) Validate() error {
	if r == nil || r.IsEmpty() {
		return dErrors.New(dErrors.CodeBadRequest, "patch must set at least one attribute")
	}
	return nil
}

// AddFieldsRequest is the body of POST /processes/{id}/fields.
type AddFieldsRequest struct {
	Fields []models.FormField `json:"fields"`
}

func (r *AddFieldsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Fields) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "at most 200 fields per request")
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" {
			return dErrors.New(dErrors.CodeValidation, "field id is required")
		}
		if f.Type == "" {
			f.Type = models.FieldTypeText
		}
		if !f.Type.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown field type: "+string(f.Type))
		}
	}
	return nil
}

// FieldValueRequest is the body of PUT /processes/{id}/fields/{fieldID}/value.
type FieldValueRequest struct {
	Value string `json:"value"`
}

func (r *FieldValueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// AddDocumentRequest is the body of POST /processes/{id}/documents.
type AddDocumentRequest struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
}

func (r *AddDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func (r *AddDocumentRequest) toDocument() models.ProcessDocument {
	return models.ProcessDocument{Name: r.Name, URI: r.URI, MimeType: r.MimeType}
}

// ExtractionRequest is the body of POST /processes/{id}/documents/{docID}/extraction.
type ExtractionRequest struct {
	service.Extraction
}

func (r *ExtractionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, e := range r.Entries {
		if strings.TrimSpace(e.Key) == "" {
			return dErrors.New(dErrors.CodeValidation, "extracted field key is required")
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
		}
	}
	return nil
}

// GeneratedFieldsRequest is the body of POST /processes/{id}/generated-fields.
type GeneratedFieldsRequest struct {
	Fields []service.FieldDescriptor `json:"fields"`
}

func (r *GeneratedFieldsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Fields) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "at most 200 fields per request")
	}
	return nil
}

// PersonaRequest is the body of PUT /processes/{id}/persona.
type PersonaRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Authorized   bool   `json:"authorized"`

	parsedType models.PersonaType
}

func (r *PersonaRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	t, err := models.ParsePersonaType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedType = t
	r.Name = strings.TrimSpace(r.Name)
	return nil
}

func (r *PersonaRequest) toPersona() models.Persona {
	return models.Persona{
		Type:         r.parsedType,
		Name:         r.Name,
		Relationship: r.Relationship,
		Authorized:   r.Authorized,
	}
}

// ToggleRequest is the body of the data-expiry and voice endpoints.
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *ToggleRequest) Validate() error {
	if r == nil || r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return nil
}
