package models

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IsValid reports whether s is a known issue severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ValidationIssue is one finding of a validation pass. IDs are derived from
// the triggering rule and subject so repeated passes produce equal lists.
type ValidationIssue struct {
	ID          string   `json:"id"`
	FieldID     string   `json:"fieldId,omitempty"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion,omitempty"`
	RuleSource  string   `json:"ruleSource,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

func (i ValidationIssue) clone() ValidationIssue {
	i.Confidence = cloneFloat(i.Confidence)
	return i
}

// RiskCategory groups risk flags by their origin.
type RiskCategory string

const (
	RiskCategoryEligibility  RiskCategory = "eligibility"
	RiskCategoryPolicy       RiskCategory = "policy"
	RiskCategoryAIConfidence RiskCategory = "ai_confidence"
	RiskCategoryMissingData  RiskCategory = "missing_data"
)

// IsValid reports whether c is a known risk category.
func (c RiskCategory) IsValid() bool {
	switch c {
	case RiskCategoryEligibility, RiskCategoryPolicy, RiskCategoryAIConfidence, RiskCategoryMissingData:
		return true
	}
	return false
}

// RiskSeverity grades a risk flag.
type RiskSeverity string

const (
	RiskLow    RiskSeverity = "low"
	RiskMedium RiskSeverity = "medium"
	RiskHigh   RiskSeverity = "high"
)

// IsValid reports whether s is a known risk severity.
func (s RiskSeverity) IsValid() bool {
	switch s {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RiskFlag is an elevated-risk finding surfaced for awareness rather than
// blocking. Same replace-on-validate lifecycle as ValidationIssue.
type RiskFlag struct {
	ID           string       `json:"id"`
	Category     RiskCategory `json:"category"`
	Severity     RiskSeverity `json:"severity"`
	Message      string       `json:"message"`
	Explanation  string       `json:"explanation"`
	AIConfidence *float64     `json:"aiConfidence,omitempty"`
}

func (r RiskFlag) clone() RiskFlag {
	r.AIConfidence = cloneFloat(r.AIConfidence)
	return r
}

// CountBySeverity tallies issues of each severity.
func CountBySeverity(issues []ValidationIssue) (errors, warnings, infos int) {
	for _, i := range issues {
		switch i.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			infos++
		}
	}
	return errors, warnings, infos
}
