package calc

import (
	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

// MarginResult carries the values derived from the professional total:
// gross margin, the operating-cost commission applied to it, and the
// tax over margin. Each value is rounded to two decimals on its own
// before entering the subtotal.
type MarginResult struct {
	MarginValue       determinism.Money
	CommissionPercent decimal.Decimal
	OperatingCost     determinism.Money
	TaxValue          determinism.Money
}

// ResolveMargin derives margin, commission cost and tax from the
// professional total. Fixed profit joins the margin either as-is or
// scaled by the hour factor, per the rule set.
func ResolveMargin(snap *rules.Snapshot, professionalTotal determinism.Money, hourFactor decimal.Decimal) MarginResult {
	margin := professionalTotal.Amount().Mul(snap.MarginPercent).Div(oneHundred)

	fixed := snap.FixedProfit
	if snap.FixedProfitScaledByHours {
		fixed = determinism.Round2(fixed.Mul(hourFactor))
	}
	margin = determinism.Round2(margin.Add(fixed))

	commissionPercent := decimal.Zero
	for _, rule := range snap.CommissionRules {
		if rule.Active {
			commissionPercent = commissionPercent.Add(rule.Percent)
		}
	}

	currency := professionalTotal.Currency()
	marginValue := determinism.NewMoneyFromDecimal(margin, currency).ClampNonNegative()
	return MarginResult{
		MarginValue:       marginValue,
		CommissionPercent: commissionPercent,
		OperatingCost:     marginValue.MulPercent(commissionPercent),
		TaxValue:          marginValue.MulPercent(snap.TaxOverMarginPercent),
	}
}
