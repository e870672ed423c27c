// Package validation derives validation issues and risk flags from the
// current state of a process. Evaluation is pure: the same process always
// yields the same result.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"clarity/internal/process/models"
)

// LowConfidenceThreshold is the field confidence below which an
// ai_confidence risk flag is raised.
const LowConfidenceThreshold = 0.7

// Fixed ids for process-level findings.
const (
	IssueNoDocuments        = "no-documents"
	RiskNoDocuments         = "no-documents-risk"
	RiskUnauthorizedPersona = "unauthorized-persona"
)

// Result is the full replacement set of findings for a process.
type Result struct {
	Issues    []models.ValidationIssue
	RiskFlags []models.RiskFlag
}

// HasErrors reports whether any issue has error severity.
func (r Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

// Evaluate applies the rules over fields in declaration order, followed by
// the document and persona rules.
func Evaluate(p *models.Process) Result {
	res := Result{Issues: []models.ValidationIssue{}, RiskFlags: []models.RiskFlag{}}
	if p == nil {
		return res
	}

	for _, f := range p.Fields {
		if f.Required && !f.IsFilled() {
			res.Issues = append(res.Issues, fieldIssue(f, "required",
				fmt.Sprintf("%s is required", f.Label),
				"Please fill in this field",
				"Form validation rules"))
		}
		if f.Type == models.FieldTypeDate && f.Value != "" && !IsDate(f.Value) {
			res.Issues = append(res.Issues, fieldIssue(f, "invalid-date",
				fmt.Sprintf("%s has invalid date format", f.Label),
				"Please enter a valid date",
				"Date format validation"))
		}
		if f.Type == models.FieldTypeNumber && f.Value != "" && !IsNumber(f.Value) {
			res.Issues = append(res.Issues, fieldIssue(f, "invalid-number",
				fmt.Sprintf("%s must be a valid number", f.Label),
				"Please enter a numeric value",
				"Number format validation"))
		}
		if f.Confidence != nil && *f.Confidence < LowConfidenceThreshold {
			conf := *f.Confidence
			res.RiskFlags = append(res.RiskFlags, models.RiskFlag{
				ID:           f.ID + "-low-confidence",
				Category:     models.RiskCategoryAIConfidence,
				Severity:     models.RiskMedium,
				Message:      fmt.Sprintf("AI is less confident about \"%s\"", f.Label),
				Explanation:  fmt.Sprintf("The AI extracted this field with %d%% confidence. Please verify the information.", int(math.Round(conf*100))),
				AIConfidence: &conf,
			})
		}
	}

	if len(p.Documents) == 0 {
		res.Issues = append(res.Issues, models.ValidationIssue{
			ID:         IssueNoDocuments,
			Severity:   models.SeverityWarning,
			Message:    "No documents uploaded",
			Suggestion: "Upload supporting documents to strengthen your application",
			RuleSource: "Document requirements",
			Confidence: certain(),
		})
		res.RiskFlags = append(res.RiskFlags, models.RiskFlag{
			ID:          RiskNoDocuments,
			Category:    models.RiskCategoryMissingData,
			Severity:    models.RiskHigh,
			Message:     "Missing supporting documents",
			Explanation: "Without documents, the application may be incomplete or rejected.",
		})
	}

	if p.Persona.NeedsAuthorization() {
		res.RiskFlags = append(res.RiskFlags, models.RiskFlag{
			ID:          RiskUnauthorizedPersona,
			Category:    models.RiskCategoryPolicy,
			Severity:    models.RiskHigh,
			Message:     "Authorization may be required",
			Explanation: fmt.Sprintf("Acting as %s may require legal authorization or documentation.", p.Persona.Type),
		})
	}
	return res
}

func fieldIssue(f models.FormField, rule, message, suggestion, source string) models.ValidationIssue {
	return models.ValidationIssue{
		ID:         f.ID + "-" + rule,
		FieldID:    f.ID,
		Severity:   models.SeverityError,
		Message:    message,
		Suggestion: suggestion,
		RuleSource: source,
		Confidence: certain(),
	}
}

func certain() *float64 {
	c := 1.0
	return &c
}

// dateLayouts are the accepted date spellings, tried in order.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	"2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// IsDate reports whether value parses as a calendar date in one of the
// accepted layouts. Surrounding whitespace is ignored; a blank value is not
// a date.
func IsDate(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

var (
	decimalLiteral  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	prefixedInteger = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// IsNumber reports whether value reads as a number the way a browser number
// input coerces it. Surrounding whitespace is ignored and a blank value counts
// as zero. Unsigned hex, octal and binary integers and the Infinity literal
// are accepted; out-of-range decimals overflow to infinity and still count.
func IsNumber(value string) bool {
	v := strings.TrimSpace(value)
	switch v {
	case "", "Infinity", "+Infinity", "-Infinity":
		return true
	}
	return decimalLiteral.MatchString(v) || prefixedInteger.MatchString(v)
}
