package calc

import (
	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

// MiniCostValue is one valued addon line item on a quote
type MiniCostValue struct {
	Code          string
	Label         string
	Value         determinism.Money
	ScaledByHours bool
}

// ResolveMiniCosts selects and values the addon line items. An override
// entry beats the rule's default activation; inactive rules contribute
// nothing and are omitted from the returned list entirely.
func ResolveMiniCosts(snap *rules.Snapshot, overrides map[string]bool, hourFactor decimal.Decimal) ([]MiniCostValue, determinism.Money) {
	total := determinism.Zero(snap.Currency)
	var items []MiniCostValue
	for _, rule := range snap.MiniCostRules {
		active := rule.ActiveByDefault
		if forced, ok := overrides[rule.Code]; ok {
			active = forced
		}
		if !active {
			continue
		}
		value := rule.Value
		if rule.ScaledByHours {
			value = value.Mul(hourFactor)
		}
		money := determinism.NewMoneyFromDecimal(value, snap.Currency).Round2().ClampNonNegative()
		items = append(items, MiniCostValue{
			Code:          rule.Code,
			Label:         rule.Label,
			Value:         money,
			ScaledByHours: rule.ScaledByHours,
		})
		total = total.Add(money)
	}
	return items, total.Round2()
}
