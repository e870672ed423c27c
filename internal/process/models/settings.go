package models

import "time"

// ImpactMetrics is informational and never feeds the readiness score.
type ImpactMetrics struct {
	EstimatedTimeSavedHours float64 `json:"estimatedTimeSavedHours"`
	ErrorReductionPercent   float64 `json:"errorReductionPercent"`
	EstimatedCostSaved      float64 `json:"estimatedCostSaved"`
	ComparisonToManual      string  `json:"comparisonToManual"`
}

// DataExpiry is retention policy metadata. Nothing schedules deletion.
type DataExpiry struct {
	Enabled             bool       `json:"enabled"`
	ExpiryDate          *time.Time `json:"expiryDate,omitempty"`
	AutoDeleteAfterDays *int       `json:"autoDeleteAfterDays,omitempty"`
}

// NewDataExpiry builds the policy for a toggle: enabled sets the expiry to
// now plus days, disabled clears both dates.
func NewDataExpiry(enabled bool, days int, now time.Time) DataExpiry {
	if !enabled {
		return DataExpiry{}
	}
	expiry := now.Add(time.Duration(days) * 24 * time.Hour)
	return DataExpiry{
		Enabled:             true,
		ExpiryDate:          &expiry,
		AutoDeleteAfterDays: &days,
	}
}

func (d DataExpiry) clone() DataExpiry {
	d.ExpiryDate = cloneTime(d.ExpiryDate)
	if d.AutoDeleteAfterDays != nil {
		v := *d.AutoDeleteAfterDays
		d.AutoDeleteAfterDays = &v
	}
	return d
}
