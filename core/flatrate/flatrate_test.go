package flatrate

import (
	"testing"

	"github.com/shopspring/decimal"

	"carecost/core/rules"
	"carecost/internal/errors"
)

func TestCalculateScalesPerExtraPatient(t *testing.T) {
	rates := DefaultRates()

	res, err := Calculate(rates, Input{Tier: rules.TierAide, Hours: 10, Patients: 3})
	if err != nil {
		t.Fatal(err)
	}
	// 18 x 10 = 180 gross; 30% per extra patient, two extras
	if res.Gross.Amount().StringFixed(2) != "180.00" {
		t.Errorf("gross = %s, want 180.00", res.Gross.Amount())
	}
	if res.ExtraPatients.Amount().StringFixed(2) != "108.00" {
		t.Errorf("extra patients = %s, want 108.00", res.ExtraPatients.Amount())
	}
	if res.Final.Amount().StringFixed(2) != "288.00" {
		t.Errorf("final = %s, want 288.00", res.Final.Amount())
	}
}

func TestCalculateDiscount(t *testing.T) {
	rates := DefaultRates()

	res, err := Calculate(rates, Input{
		Tier: rules.TierNurse, Hours: 6, Patients: 1,
		DiscountPercent: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatal(err)
	}
	// 34 x 6 = 204, minus 10%
	if res.Discount.Amount().StringFixed(2) != "20.40" {
		t.Errorf("discount = %s, want 20.40", res.Discount.Amount())
	}
	if res.Final.Amount().StringFixed(2) != "183.60" {
		t.Errorf("final = %s, want 183.60", res.Final.Amount())
	}

	// Discounts beyond 100% clamp to a free quote, never negative
	res, err = Calculate(rates, Input{
		Tier: rules.TierNurse, Hours: 6, Patients: 1,
		DiscountPercent: decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Final.IsZero() {
		t.Errorf("final = %s, want zero", res.Final.Amount())
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	rates := DefaultRates()
	cases := []Input{
		{Tier: rules.Tier(0), Hours: 10, Patients: 1},
		{Tier: rules.TierAide, Hours: 0, Patients: 1},
		{Tier: rules.TierAide, Hours: 10, Patients: 0},
	}
	for _, in := range cases {
		if _, err := Calculate(rates, in); !errors.IsType(err, errors.TypeInput) {
			t.Errorf("input %+v: want input error, got %v", in, err)
		}
	}
}
