package models

import "strings"

// FieldType selects how a field value is entered and validated.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeDate      FieldType = "date"
	FieldTypeNumber    FieldType = "number"
	FieldTypeSelect    FieldType = "select"
	FieldTypeMultiline FieldType = "multiline"
)

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeDate, FieldTypeNumber, FieldTypeSelect, FieldTypeMultiline:
		return true
	}
	return false
}

// FormField is one form input. An empty Value means unfilled.
type FormField struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Label             string    `json:"label"`
	Value             string    `json:"value"`
	Type              FieldType `json:"type"`
	Required          bool      `json:"required"`
	Validated         bool      `json:"validated"`
	ValidationMessage string    `json:"validationMessage,omitempty"`
	Options           []string  `json:"options,omitempty"`
	ExtractedFrom     string    `json:"extractedFrom,omitempty"`
	Confidence        *float64  `json:"confidence,omitempty"`
	Trigger           string    `json:"trigger,omitempty"`
	Explanation       string    `json:"explanation,omitempty"`
}

// IsFilled reports whether the field carries a non-blank value.
func (f FormField) IsFilled() bool {
	return strings.TrimSpace(f.Value) != ""
}

func (f FormField) clone() FormField {
	f.Options = cloneStrings(f.Options)
	f.Confidence = cloneFloat(f.Confidence)
	return f
}

// WithDefaults returns f with an empty type set to text.
func (f FormField) WithDefaults() FormField {
	if f.Type == "" {
		f.Type = FieldTypeText
	}
	return f
}

// Clone returns a deep copy of the field.
func (f FormField) Clone() FormField {
	return f.clone()
}
