package models

import "time"

// ProcessDocument is one uploaded file. Only Parsed and the derived data
// (ExtractedData, Confidence, RiskFlags) change after creation.
type ProcessDocument struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	URI           string         `json:"uri"`
	MimeType      string         `json:"mimeType"`
	UploadedAt    time.Time      `json:"uploadedAt"`
	Parsed        bool           `json:"parsed"`
	ExtractedData map[string]any `json:"extractedData,omitempty"`
	Confidence    *float64       `json:"confidence,omitempty"`
	RiskFlags     []string       `json:"riskFlags,omitempty"`
}

func (d ProcessDocument) clone() ProcessDocument {
	d.ExtractedData = cloneAnyMap(d.ExtractedData)
	d.Confidence = cloneFloat(d.Confidence)
	d.RiskFlags = cloneStrings(d.RiskFlags)
	return d
}

// Clone returns a deep copy of the document.
func (d ProcessDocument) Clone() ProcessDocument {
	return d.clone()
}
