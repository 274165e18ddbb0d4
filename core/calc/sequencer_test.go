package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

func money(t *testing.T, s string) determinism.Money {
	t.Helper()
	m, err := determinism.NewMoney(s, "BRL")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestClampPercent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"-5", "0"},
		{"0", "0"},
		{"42.5", "42.5"},
		{"100", "100"},
		{"130", "100"},
	}
	for _, tc := range cases {
		if got := ClampPercent(dec(t, tc.in)); !got.Equal(dec(t, tc.want)) {
			t.Errorf("ClampPercent(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestResolveDiscountPercentCombinesPresetAndManual(t *testing.T) {
	snap := sealedSnapshot(t)

	in := &Input{DiscountPreset: "longterm", ManualDiscountPercent: dec(t, "95")}
	if got := ResolveDiscountPercent(snap, in); !got.Equal(dec(t, "100")) {
		t.Errorf("combined discount = %s, want clamp at 100", got)
	}

	in = &Input{DiscountPreset: "campaign"} // inactive preset
	if got := ResolveDiscountPercent(snap, in); !got.IsZero() {
		t.Errorf("inactive preset contributed %s", got)
	}

	in = &Input{DiscountPreset: "closing", ManualDiscountPercent: dec(t, "3")}
	if got := ResolveDiscountPercent(snap, in); !got.Equal(dec(t, "8")) {
		t.Errorf("combined discount = %s, want 8", got)
	}
}

func TestSequenceDiscountFirst(t *testing.T) {
	snap := sealedSnapshot(t) // FeeBeforeDiscount is off by default
	subtotal := money(t, "245.20")
	professional := money(t, "154.80")

	res := Sequence(snap, subtotal, professional, dec(t, "4.5"), dec(t, "10"), determinism.Zero("BRL"))

	// discount on the subtotal, fee on the discounted amount
	if res.DiscountValue.Amount().StringFixed(2) != "24.52" {
		t.Errorf("discount = %s, want 24.52", res.DiscountValue.Amount())
	}
	if res.FeeValue.Amount().StringFixed(2) != "9.93" {
		t.Errorf("fee = %s, want 9.93", res.FeeValue.Amount())
	}
	if res.FinalPrice.Amount().StringFixed(2) != "230.61" {
		t.Errorf("final = %s, want 230.61", res.FinalPrice.Amount())
	}
	if res.BelowCostClamped {
		t.Error("unexpected clamp")
	}
}

func TestSequenceFeeFirst(t *testing.T) {
	snap := rules.DefaultSnapshot("u", "hq", "HQ")
	snap.FeeBeforeDiscount = true
	if err := snap.Seal(); err != nil {
		t.Fatal(err)
	}
	subtotal := money(t, "245.20")
	professional := money(t, "154.80")

	res := Sequence(snap, subtotal, professional, dec(t, "4.5"), dec(t, "10"), determinism.Zero("BRL"))

	// fee on the subtotal, discount on subtotal plus fee
	if res.FeeValue.Amount().StringFixed(2) != "11.03" {
		t.Errorf("fee = %s, want 11.03", res.FeeValue.Amount())
	}
	if res.DiscountValue.Amount().StringFixed(2) != "25.62" {
		t.Errorf("discount = %s, want 25.62", res.DiscountValue.Amount())
	}
	if res.FinalPrice.Amount().StringFixed(2) != "230.61" {
		t.Errorf("final = %s, want 230.61", res.FinalPrice.Amount())
	}
}

func TestSequenceFixedDiscountAmount(t *testing.T) {
	snap := sealedSnapshot(t)
	subtotal := money(t, "200")
	professional := money(t, "100")

	res := Sequence(snap, subtotal, professional, decimal.Zero, dec(t, "10"), money(t, "15"))

	// percentage first, then the fixed amount: 200 - 20 - 15
	if res.FinalPrice.Amount().StringFixed(2) != "165.00" {
		t.Errorf("final = %s, want 165.00", res.FinalPrice.Amount())
	}
}

func TestSequenceClampsAtProfessionalCost(t *testing.T) {
	snap := sealedSnapshot(t)
	subtotal := money(t, "200")
	professional := money(t, "150")

	res := Sequence(snap, subtotal, professional, decimal.Zero, dec(t, "80"), determinism.Zero("BRL"))
	if !res.BelowCostClamped {
		t.Fatal("expected clamp flag")
	}
	if res.FinalPrice.Cmp(professional) != 0 {
		t.Errorf("final = %s, want the professional cost", res.FinalPrice.Amount())
	}
}
