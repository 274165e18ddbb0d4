package rules

import "fmt"

// Tier is one of four ordered professional staffing levels.
// Ordering is total and strict: comparisons on the numeric value are
// the canonical way to decide escalation.
type Tier int

const (
	// TierAide is an entry-level caregiver aide
	TierAide Tier = iota + 1

	// TierTechnician is a nursing technician
	TierTechnician

	// TierAssistant is a nursing assistant
	TierAssistant

	// TierNurse is a registered nurse
	TierNurse
)

// AllTiers lists every tier in ascending order
var AllTiers = []Tier{TierAide, TierTechnician, TierAssistant, TierNurse}

// Valid reports whether the tier is one of the four known levels
func (t Tier) Valid() bool {
	return t >= TierAide && t <= TierNurse
}

// String returns the tier code used in rule files and breakdowns
func (t Tier) String() string {
	switch t {
	case TierAide:
		return "aide"
	case TierTechnician:
		return "technician"
	case TierAssistant:
		return "assistant"
	case TierNurse:
		return "nurse"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Label returns the display name shown on quotes
func (t Tier) Label() string {
	switch t {
	case TierAide:
		return "Caregiver Aide"
	case TierTechnician:
		return "Nursing Technician"
	case TierAssistant:
		return "Nursing Assistant"
	case TierNurse:
		return "Registered Nurse"
	default:
		return "Unknown"
	}
}

// ParseTier converts a tier code from a rule file or API request
func ParseTier(s string) (Tier, error) {
	switch s {
	case "aide":
		return TierAide, nil
	case "technician":
		return TierTechnician, nil
	case "assistant":
		return TierAssistant, nil
	case "nurse":
		return TierNurse, nil
	}
	return 0, fmt.Errorf("unknown professional tier %q", s)
}
