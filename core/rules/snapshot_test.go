package rules

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSealComputesStableHash(t *testing.T) {
	a := DefaultSnapshot("u1", "hq", "Headquarters")
	b := DefaultSnapshot("u1", "hq", "Headquarters")
	if err := a.Seal(); err != nil {
		t.Fatal(err)
	}
	if err := b.Seal(); err != nil {
		t.Fatal(err)
	}
	if !a.IsSealed() || !b.IsSealed() {
		t.Fatal("snapshots not sealed")
	}
	if a.ContentHash() != b.ContentHash() {
		t.Errorf("identical rule sets hashed differently: %s vs %s", a.ContentHash(), b.ContentHash())
	}

	c := DefaultSnapshot("u1", "hq", "Headquarters")
	c.MarginPercent = decimal.NewFromInt(31)
	if err := c.Seal(); err != nil {
		t.Fatal(err)
	}
	if a.ContentHash() == c.ContentHash() {
		t.Error("changed margin percent did not change the content hash")
	}
}

func TestContentHashPanicsUnsealed(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ContentHash on an unsealed snapshot must panic")
		}
	}()
	snap := DefaultSnapshot("u1", "hq", "Headquarters")
	_ = snap.ContentHash()
}

func TestValidateRejectsDecreasingHourFactors(t *testing.T) {
	snap := DefaultSnapshot("u1", "hq", "Headquarters")
	snap.HourRules[7] = decimal.RequireFromString("0.10")
	err := snap.Seal()
	if err == nil || !strings.Contains(err.Error(), "hour factor decreases") {
		t.Errorf("want monotonicity error, got %v", err)
	}
	if snap.IsSealed() {
		t.Error("failed seal must leave the snapshot unsealed")
	}
}

func TestValidateRequiresEveryTierBase(t *testing.T) {
	snap := DefaultSnapshot("u1", "hq", "Headquarters")
	delete(snap.Base12h, TierNurse)
	if err := snap.Seal(); err == nil {
		t.Error("want error for missing tier base")
	}
}

func TestFeePercentFor(t *testing.T) {
	snap := DefaultSnapshot("u1", "hq", "Headquarters")

	if got := snap.FeePercentFor("credit_card", "monthly"); !got.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("credit_card/monthly = %s, want 4.5", got)
	}
	if got := snap.FeePercentFor("pix", "single"); !got.IsZero() {
		t.Errorf("pix/single = %s, want 0", got)
	}
	// No cross-period fallback
	if got := snap.FeePercentFor("boleto", "single"); !got.IsZero() {
		t.Errorf("unconfigured method/period pair = %s, want 0", got)
	}
	if got := snap.FeePercentFor("", ""); !got.IsZero() {
		t.Errorf("empty method = %s, want 0", got)
	}
}

func TestSelectConditionRules(t *testing.T) {
	snap := DefaultSnapshot("u1", "hq", "Headquarters")
	snap.ConditionRules = append(snap.ConditionRules, ConditionRule{
		Code: "dormant", Label: "Dormant", MinimumTier: TierNurse,
		SurchargePercent: decimal.NewFromInt(50), Active: false,
	})

	selected := snap.SelectConditionRules([]string{"bedridden", "dormant", "alzheimer", "unknown", "alzheimer"})
	if len(selected) != 2 {
		t.Fatalf("selected %d rules, want 2: %+v", len(selected), selected)
	}
	// Snapshot order, not request order; duplicates collapse
	if selected[0].Code != "alzheimer" || selected[1].Code != "bedridden" {
		t.Errorf("selection order = %s, %s", selected[0].Code, selected[1].Code)
	}
}

func TestDiscountPresetPercent(t *testing.T) {
	snap := DefaultSnapshot("u1", "hq", "Headquarters")
	if got := snap.DiscountPresetPercent("longterm"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("longterm = %s, want 10", got)
	}
	if got := snap.DiscountPresetPercent("campaign"); !got.IsZero() {
		t.Errorf("inactive preset = %s, want 0", got)
	}
	if got := snap.DiscountPresetPercent("nope"); !got.IsZero() {
		t.Errorf("unknown preset = %s, want 0", got)
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range AllTiers {
		parsed, err := ParseTier(tier.String())
		if err != nil {
			t.Fatalf("ParseTier(%s): %v", tier, err)
		}
		if parsed != tier {
			t.Errorf("ParseTier(%s) = %v", tier, parsed)
		}
	}
	if _, err := ParseTier("janitor"); err == nil {
		t.Error("want error for unknown tier name")
	}
}
