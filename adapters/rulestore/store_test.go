package rulestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"carecost/core/calc"
	"carecost/core/engine"
	"carecost/core/rules"
	"carecost/internal/errors"
)

const sampleUnit = `
unit "sp" {
  id      = "unit-900"
  name    = "Sao Paulo"
  version = "2"

  base_12h = {
    aide       = 200
    technician = 240
    assistant  = 280
    nurse      = 360
  }

  hour_factors = {
    "1"  = 0.25
    "6"  = 0.60
    "12" = 1.00
  }

  percents {
    extra_patient = 35
    night         = 20
    holiday       = 100
  }

  margin {
    percent                 = 28
    tax_over_margin_percent = 6
  }

  payment_fee "credit_card" "monthly" {
    percent = 4.5
  }

  minicost "supervision" {
    label             = "Supervision visit"
    value             = 25
    active_by_default = true
  }

  commission "ops" {
    percent = 12
  }

  condition "alzheimer" {
    label             = "Alzheimer / dementia"
    minimum_tier      = "technician"
    surcharge_percent = 8
  }

  discount "closing" {
    percent = 5
  }
}
`

func TestParseSampleUnit(t *testing.T) {
	snap, err := Parse([]byte(sampleUnit), "sp.hcl")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.IsSealed() {
		t.Fatal("parsed snapshot must arrive sealed")
	}
	if snap.ID != rules.SnapshotID("sp@2") {
		t.Errorf("id = %s, want sp@2", snap.ID)
	}
	if snap.UnitID != "unit-900" || snap.Currency != "BRL" || !snap.Active {
		t.Errorf("unexpected identity fields: %+v", snap)
	}
	if got := snap.BasePriceFor(rules.TierNurse); got.StringFixed(2) != "360.00" {
		t.Errorf("nurse base = %s, want 360", got)
	}
	if f, ok := snap.HourRules[6]; !ok || f.StringFixed(2) != "0.60" {
		t.Errorf("hour factor 6 = %s", f)
	}
	if len(snap.ConditionRules) != 1 || snap.ConditionRules[0].MinimumTier != rules.TierTechnician {
		t.Errorf("condition rules = %+v", snap.ConditionRules)
	}
	if got := snap.FeePercentFor("credit_card", "monthly"); got.StringFixed(1) != "4.5" {
		t.Errorf("fee = %s, want 4.5", got)
	}
}

func TestParseRejectsInvalidRuleSets(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"syntax error", `unit "sp" {`},
		{"no unit block", `# empty file`},
		{"missing tier base", `unit "sp" {
  base_12h = { aide = 200 }
}`},
		{"decreasing hour factors", `unit "sp" {
  base_12h = { aide = 200, technician = 240, assistant = 280, nurse = 360 }
  hour_factors = { "1" = 0.9, "2" = 0.5, "12" = 1.0 }
}`},
		{"hour out of range", `unit "sp" {
  base_12h = { aide = 200, technician = 240, assistant = 280, nurse = 360 }
  hour_factors = { "13" = 1.1 }
}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.src), tc.name+".hcl"); err == nil {
				t.Error("want parse error")
			}
		})
	}
}

func TestStoreLookupPriority(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sp.hcl"), []byte(sampleUnit), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	byVersion, err := store.GetSnapshot(ctx, engine.SnapshotKey{VersionID: "sp@2"})
	if err != nil {
		t.Fatal(err)
	}
	byUnitID, err := store.GetSnapshot(ctx, engine.SnapshotKey{UnitID: "unit-900"})
	if err != nil {
		t.Fatal(err)
	}
	byCode, err := store.GetSnapshot(ctx, engine.SnapshotKey{UnitCode: "sp"})
	if err != nil {
		t.Fatal(err)
	}
	if byVersion != byUnitID || byUnitID != byCode {
		t.Error("lookups resolved different snapshots")
	}

	_, err = store.GetSnapshot(ctx, engine.SnapshotKey{UnitCode: "nowhere"})
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("want NOT_FOUND, got %v", err)
	}
}

func TestSeedWritesLoadableRuleFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	seeded, err := store.Seed("unit-1", "rj", "Rio de Janeiro")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Seed("unit-1", "rj", "Rio de Janeiro"); err == nil {
		t.Error("second seed must refuse to overwrite")
	}

	parsed, err := ParseFile(filepath.Join(dir, "rj.hcl"))
	if err != nil {
		t.Fatalf("seeded file does not parse: %v", err)
	}

	// The written file must price exactly like the in-memory snapshot
	in := &calc.Input{
		Tier:           rules.TierAide,
		Hours:          10,
		Patients:       2,
		ConditionCodes: []string{"alzheimer"},
		Night:          true,
		PaymentMethod:  "credit_card",
		PaymentPeriod:  "monthly",
		DiscountPreset: "closing",
	}
	fromSeed, err := calc.Calculate(seeded, in)
	if err != nil {
		t.Fatal(err)
	}
	fromFile, err := calc.Calculate(parsed, in)
	if err != nil {
		t.Fatal(err)
	}
	if fromSeed.FinalPrice.Cmp(fromFile.FinalPrice) != 0 {
		t.Errorf("seeded snapshot and reparsed file disagree: %s vs %s",
			fromSeed.FinalPrice.Amount(), fromFile.FinalPrice.Amount())
	}
	if fromSeed.Subtotal.Cmp(fromFile.Subtotal) != 0 {
		t.Errorf("subtotals disagree: %s vs %s",
			fromSeed.Subtotal.Amount(), fromFile.Subtotal.Amount())
	}

	// And the store must now resolve the new unit
	if _, err := store.GetSnapshot(context.Background(), engine.SnapshotKey{UnitCode: "rj"}); err != nil {
		t.Errorf("seeded unit not indexed: %v", err)
	}
}

func TestEnsureDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.EnsureDefault("hq", "Headquarters"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSnapshot(context.Background(), engine.SnapshotKey{UnitCode: "hq"}); err != nil {
		t.Fatalf("default unit not available: %v", err)
	}
	// Second call is a no-op, not a seed conflict
	if err := store.EnsureDefault("hq", "Headquarters"); err != nil {
		t.Errorf("EnsureDefault not idempotent: %v", err)
	}
}
