package rules

import (
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("rules: bad default decimal " + s)
	}
	return d
}

// StandardHourTable is the 12-point cost factor table seeded for new
// units. A one-hour visit still costs 20% of a full shift; hour twelve
// closes the segment at factor 1.00.
func StandardHourTable() map[int]decimal.Decimal {
	return map[int]decimal.Decimal{
		1:  dec("0.20"),
		2:  dec("0.30"),
		3:  dec("0.38"),
		4:  dec("0.45"),
		5:  dec("0.52"),
		6:  dec("0.60"),
		7:  dec("0.66"),
		8:  dec("0.72"),
		9:  dec("0.79"),
		10: dec("0.86"),
		11: dec("0.93"),
		12: dec("1.00"),
	}
}

// DefaultSnapshot builds the seeded rule set for a new business unit.
// Rates and percents mirror the company-wide defaults; units adjust
// them in their own rule files afterwards.
func DefaultSnapshot(unitID, unitCode, unitName string) *Snapshot {
	return &Snapshot{
		ID:        SnapshotID("seed-" + unitCode),
		UnitID:    unitID,
		UnitCode:  unitCode,
		UnitName:  unitName,
		Version:   "1",
		Currency:  "BRL",
		Active:    true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Base12h: map[Tier]decimal.Decimal{
			TierAide:       dec("180"),
			TierTechnician: dec("220"),
			TierAssistant:  dec("260"),
			TierNurse:      dec("340"),
		},
		Percents: AdditivePercents{
			ExtraPatient:           dec("35"),
			Night:                  dec("20"),
			Weekend:                dec("25"),
			Holiday:                dec("100"),
			HighRisk:               dec("30"),
			Specialty:              dec("15"),
			Urgency:                dec("10"),
			SpecialtyScaledByHours: false,
			UrgencyScaledByHours:   true,
		},
		HourRules:                StandardHourTable(),
		MarginPercent:            dec("30"),
		FixedProfit:              dec("0"),
		FixedProfitScaledByHours: false,
		TaxOverMarginPercent:     dec("6"),
		PaymentFeeRules: []PaymentFeeRule{
			{Method: "credit_card", Period: "monthly", FeePercent: dec("4.5"), Active: true},
			{Method: "credit_card", Period: "single", FeePercent: dec("3"), Active: true},
			{Method: "boleto", Period: "monthly", FeePercent: dec("1.5"), Active: true},
			{Method: "pix", Period: "single", FeePercent: dec("0"), Active: true},
		},
		MiniCostRules: []MiniCostRule{
			{Code: "supervision", Label: "Supervision visit", Value: dec("25"), ScaledByHours: false, ActiveByDefault: true, OptionalAtClosing: false},
			{Code: "reserve", Label: "Technical reserve", Value: dec("8"), ScaledByHours: true, ActiveByDefault: true, OptionalAtClosing: true},
			{Code: "transport", Label: "Professional transport", Value: dec("12"), ScaledByHours: false, ActiveByDefault: false, OptionalAtClosing: true},
		},
		CommissionRules: []CommissionRule{
			{Code: "ops", Label: "Operations", Percent: dec("12"), Active: true},
			{Code: "sales", Label: "Sales commission", Percent: dec("8"), Active: true},
			{Code: "franchise", Label: "Franchise royalty", Percent: dec("5"), Active: false},
		},
		ConditionRules: []ConditionRule{
			{Code: "alzheimer", Label: "Alzheimer / dementia", ComplexityTier: 2, MinimumTier: TierTechnician, SurchargePercent: dec("8"), Active: true},
			{Code: "tracheostomy", Label: "Tracheostomy care", ComplexityTier: 3, MinimumTier: TierAssistant, SurchargePercent: dec("15"), Active: true},
			{Code: "ventilation", Label: "Mechanical ventilation", ComplexityTier: 4, MinimumTier: TierNurse, SurchargePercent: dec("25"), Active: true},
			{Code: "diabetes", Label: "Insulin-dependent diabetes", ComplexityTier: 1, MinimumTier: TierAide, SurchargePercent: dec("5"), Active: true},
			{Code: "bedridden", Label: "Bedridden patient", ComplexityTier: 2, MinimumTier: TierTechnician, SurchargePercent: dec("10"), Active: true},
		},
		DiscountPresets: []DiscountPreset{
			{Name: "closing", Percent: dec("5"), Active: true},
			{Name: "longterm", Percent: dec("10"), Active: true},
			{Name: "campaign", Percent: dec("15"), Active: false},
		},
		FeeBeforeDiscount: false,
	}
}
