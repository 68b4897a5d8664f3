package detect

import "github.com/wastescan/detector/pkg/rules"

// ConfidenceForAge implements the default confidence ladder from the rule
// registry (§4.4): age is a floor a scenario may only promote, never lower.
func ConfidenceForAge(ageDays int, r rules.ResolvedRules) Confidence {
	switch {
	case ageDays >= r.IntOr("confidence_critical_days", 90):
		return ConfidenceCritical
	case ageDays >= r.IntOr("confidence_high_days", 30):
		return ConfidenceHigh
	case ageDays >= r.IntOr("confidence_medium_days", 7):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Promote returns the stronger of a base (age-derived) confidence and a
// scenario-specific signal upgrade. Scenarios call this instead of
// constructing a Confidence literal so the age floor can never be violated.
func Promote(base Confidence, upgradeTo Confidence) Confidence {
	return base.Max(upgradeTo)
}
