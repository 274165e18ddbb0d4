package calc

import (
	"testing"

	"carecost/core/rules"
)

func TestResolveEffectiveTierNoConditions(t *testing.T) {
	res := ResolveEffectiveTier(rules.TierAide, nil)
	if res.Effective != rules.TierAide {
		t.Errorf("effective = %v, want aide", res.Effective)
	}
	if res.Escalated() {
		t.Error("unexpected escalation without conditions")
	}
	if res.Required != nil {
		t.Errorf("required = %v, want nil", *res.Required)
	}
}

func TestResolveEffectiveTierEscalates(t *testing.T) {
	selected := []rules.ConditionRule{
		{Code: "alzheimer", MinimumTier: rules.TierTechnician, SurchargePercent: dec(t, "8")},
		{Code: "tracheostomy", MinimumTier: rules.TierAssistant, SurchargePercent: dec(t, "15")},
	}
	res := ResolveEffectiveTier(rules.TierAide, selected)
	if res.Effective != rules.TierAssistant {
		t.Errorf("effective = %v, want assistant", res.Effective)
	}
	if !res.Escalated() {
		t.Error("expected escalation")
	}
	if res.Required == nil || *res.Required != rules.TierAssistant {
		t.Errorf("required = %v, want assistant", res.Required)
	}
}

func TestResolveEffectiveTierNeverDowngrades(t *testing.T) {
	selected := []rules.ConditionRule{
		{Code: "diabetes", MinimumTier: rules.TierAide, SurchargePercent: dec(t, "5")},
	}
	res := ResolveEffectiveTier(rules.TierNurse, selected)
	if res.Effective != rules.TierNurse {
		t.Errorf("effective = %v, want nurse", res.Effective)
	}
	if res.Escalated() {
		t.Error("a lower condition minimum must not downgrade the requested tier")
	}
}
