package calc

import "carecost/core/rules"

// TierResolution records whether clinical rules escalated the request
type TierResolution struct {
	Requested rules.Tier
	Effective rules.Tier

	// Required is the highest minimum tier demanded by the selected
	// condition rules, nil when no rule applied
	Required *rules.Tier
}

// Escalated reports whether the effective tier outranks the request
func (r TierResolution) Escalated() bool {
	return r.Effective > r.Requested
}

// ResolveEffectiveTier escalates the requested staffing tier when an
// active condition rule demands a higher minimum. The resolver never
// downgrades: a request above every rule's minimum passes unchanged.
// It must run before the base price lookup since base prices are
// indexed by the effective tier.
func ResolveEffectiveTier(requested rules.Tier, selected []rules.ConditionRule) TierResolution {
	res := TierResolution{Requested: requested, Effective: requested}
	for _, rule := range selected {
		if res.Required == nil || rule.MinimumTier > *res.Required {
			min := rule.MinimumTier
			res.Required = &min
		}
	}
	if res.Required != nil && *res.Required > res.Effective {
		res.Effective = *res.Required
	}
	return res
}
