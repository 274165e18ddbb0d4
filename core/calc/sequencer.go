package calc

import (
	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

// SequencerResult is the outcome of applying payment fee and discount
// to a subtotal, in the order the rule set dictates.
type SequencerResult struct {
	FeePercent      decimal.Decimal
	FeeValue        determinism.Money
	DiscountPercent decimal.Decimal
	DiscountValue   determinism.Money
	FinalPrice      determinism.Money

	// BelowCostClamped is set when the discounted price fell under the
	// raw professional cost and was raised back to it. Not an error; a
	// human reviews the quote.
	BelowCostClamped bool
}

// ClampPercent restricts a percent to [0,100]. Discount inputs pass
// through it individually and again after summation.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.Cmp(oneHundred) > 0 {
		return oneHundred
	}
	return p
}

// ResolveDiscountPercent combines the preset and manual discount
// percents, clamping each and the sum to [0,100].
func ResolveDiscountPercent(snap *rules.Snapshot, in *Input) decimal.Decimal {
	preset := decimal.Zero
	if in.DiscountPreset != "" {
		preset = snap.DiscountPresetPercent(in.DiscountPreset)
	}
	sum := ClampPercent(preset).Add(ClampPercent(in.ManualDiscountPercent))
	return ClampPercent(sum)
}

// Sequence applies the payment-method fee and the discount to the
// subtotal. The rule set's FeeBeforeDiscount switch decides which base
// each percentage sees; under either ordering the final price is
// guarded so discounts never sink below the raw staffing cost.
func Sequence(snap *rules.Snapshot, subtotal, professionalCost determinism.Money, feePercent, discountPercent decimal.Decimal, discountAmount determinism.Money) SequencerResult {
	res := SequencerResult{
		FeePercent:      feePercent,
		DiscountPercent: discountPercent,
	}

	if snap.FeeBeforeDiscount {
		res.FeeValue = subtotal.MulPercent(feePercent)
		afterFee := subtotal.Add(res.FeeValue)
		res.DiscountValue = afterFee.MulPercent(discountPercent)
		res.FinalPrice = afterFee.Sub(res.DiscountValue).Sub(discountAmount).Round2()
	} else {
		res.DiscountValue = subtotal.MulPercent(discountPercent)
		afterDiscount := subtotal.Sub(res.DiscountValue).Sub(discountAmount)
		res.FeeValue = afterDiscount.MulPercent(feePercent)
		res.FinalPrice = afterDiscount.Add(res.FeeValue).Round2()
	}

	if res.FinalPrice.Cmp(professionalCost) < 0 {
		res.FinalPrice = professionalCost
		res.BelowCostClamped = true
	}
	res.FinalPrice = res.FinalPrice.ClampNonNegative()
	return res
}
