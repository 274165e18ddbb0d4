package breakdown

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"carecost/core/calc"
	"carecost/core/rules"
)

func pricedResult(t *testing.T, in *calc.Input) *calc.Result {
	t.Helper()
	snap := rules.DefaultSnapshot("unit-test", "hq", "Headquarters")
	if err := snap.Seal(); err != nil {
		t.Fatal(err)
	}
	res, err := calc.Calculate(snap, in)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestBuildOrdering(t *testing.T) {
	res := pricedResult(t, &calc.Input{
		Tier: rules.TierAide, Hours: 10, Patients: 1,
		ConditionCodes:        []string{"diabetes"},
		Night:                 true,
		PaymentMethod:         "credit_card",
		PaymentPeriod:         "monthly",
		ManualDiscountPercent: decimal.NewFromInt(5),
	})
	b := Build(res)

	wantKinds := []Kind{
		KindProfessional,
		KindAddition, KindAddition,
		KindMargin, KindOperatingCost, KindTax,
		KindMiniCost, KindMiniCost,
		KindSubtotal, KindFee, KindDiscount, KindTotal,
	}
	if len(b.Items) != len(wantKinds) {
		t.Fatalf("got %d items, want %d: %+v", len(b.Items), len(wantKinds), b.Items)
	}
	for i, kind := range wantKinds {
		if b.Items[i].Kind != kind {
			t.Errorf("item %d kind = %s, want %s", i, b.Items[i].Kind, kind)
		}
	}
	if b.Items[len(b.Items)-1].Amount.Cmp(res.FinalPrice) != 0 {
		t.Error("total row does not carry the final price")
	}
}

func TestDiscountRowIsNegative(t *testing.T) {
	res := pricedResult(t, &calc.Input{
		Tier: rules.TierAide, Hours: 10, Patients: 1,
		ManualDiscountPercent: decimal.NewFromInt(10),
	})
	b := Build(res)

	var discount *LineItem
	for i := range b.Items {
		if b.Items[i].Kind == KindDiscount {
			discount = &b.Items[i]
		}
	}
	if discount == nil {
		t.Fatal("no discount row")
	}
	if !discount.Amount.IsNegative() {
		t.Errorf("discount amount = %s, want negative", discount.Amount)
	}
}

func TestProfessionalLabelShowsEscalation(t *testing.T) {
	res := pricedResult(t, &calc.Input{
		Tier: rules.TierAide, Hours: 10, Patients: 1,
		ConditionCodes: []string{"ventilation"},
	})
	b := Build(res)

	label := b.Items[0].Label
	if !strings.Contains(label, "escalated") {
		t.Errorf("label %q does not show the tier escalation", label)
	}
	if !strings.Contains(label, res.Effective.Label()) {
		t.Errorf("label %q does not name the effective tier", label)
	}
}

func TestBuildIsRepeatable(t *testing.T) {
	in := &calc.Input{
		Tier: rules.TierTechnician, Hours: 8, Patients: 2,
		Night: true, Weekend: true,
	}
	a := Build(pricedResult(t, in))
	c := Build(pricedResult(t, in))
	if len(a.Items) != len(c.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(a.Items), len(c.Items))
	}
	for i := range a.Items {
		if a.Items[i].Code != c.Items[i].Code || a.Items[i].Amount.Cmp(c.Items[i].Amount) != 0 {
			t.Errorf("item %d differs between identical builds", i)
		}
	}
	if a.Summary != c.Summary {
		t.Errorf("summaries differ:\n%s\n%s", a.Summary, c.Summary)
	}
}
