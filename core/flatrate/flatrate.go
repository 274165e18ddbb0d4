// Package flatrate is the legacy flat-rate calculator that predates the
// rule-driven engine. One admin screen still uses it. Unlike the rule
// engine, it bills hours linearly and scales the extra-patient
// surcharge per additional patient; that divergence is historical and
// intentional.
package flatrate

import (
	"github.com/shopspring/decimal"

	"carecost/core/calc"
	"carecost/core/determinism"
	"carecost/core/rules"
	"carecost/internal/errors"
)

// Rates is the minimal legacy rate card
type Rates struct {
	Currency            string
	HourlyRate          map[rules.Tier]decimal.Decimal
	ExtraPatientPercent decimal.Decimal
}

// DefaultRates returns the legacy company-wide rate card
func DefaultRates() Rates {
	return Rates{
		Currency: "BRL",
		HourlyRate: map[rules.Tier]decimal.Decimal{
			rules.TierAide:       decimal.RequireFromString("18"),
			rules.TierTechnician: decimal.RequireFromString("22"),
			rules.TierAssistant:  decimal.RequireFromString("26"),
			rules.TierNurse:      decimal.RequireFromString("34"),
		},
		ExtraPatientPercent: decimal.RequireFromString("30"),
	}
}

// Input is a legacy quote request
type Input struct {
	Tier            rules.Tier
	Hours           float64
	Patients        int
	DiscountPercent decimal.Decimal
}

// Result is a legacy quote
type Result struct {
	Gross         determinism.Money
	ExtraPatients determinism.Money
	Discount      determinism.Money
	Final         determinism.Money
}

// Calculate prices a request against the flat rate card
func Calculate(rates Rates, in Input) (*Result, error) {
	if !in.Tier.Valid() {
		return nil, errors.Input("professional tier is required")
	}
	if in.Hours <= 0 {
		return nil, errors.Input("hours must be greater than zero")
	}
	if in.Patients <= 0 {
		return nil, errors.Input("patient count must be greater than zero")
	}

	hours := calc.RoundHours(in.Hours)
	gross := determinism.NewMoneyFromDecimal(
		rates.HourlyRate[in.Tier].Mul(decimal.NewFromInt(int64(hours))), rates.Currency,
	).Round2()

	// Legacy behavior: one surcharge per extra patient
	extra := determinism.Zero(rates.Currency)
	if in.Patients > 1 {
		perPatient := gross.MulPercent(rates.ExtraPatientPercent)
		extra = perPatient.Mul(decimal.NewFromInt(int64(in.Patients - 1))).Round2()
	}

	base := gross.Add(extra)
	discount := base.MulPercent(clamp(in.DiscountPercent))
	return &Result{
		Gross:         gross,
		ExtraPatients: extra,
		Discount:      discount,
		Final:         base.Sub(discount).Round2().ClampNonNegative(),
	}, nil
}

func clamp(p decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.Cmp(hundred) > 0 {
		return hundred
	}
	return p
}
