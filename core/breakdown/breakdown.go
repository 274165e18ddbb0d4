// Package breakdown renders computed quote values into a stable,
// ordered line-item structure. This is the audit trail shown to staff:
// ordering and field naming must not change between calls for the same
// input.
package breakdown

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"carecost/core/calc"
	"carecost/core/determinism"
	"carecost/core/schedule"
)

// Kind classifies a line item
type Kind string

const (
	KindProfessional  Kind = "professional"
	KindAddition      Kind = "addition"
	KindMargin        Kind = "margin"
	KindOperatingCost Kind = "operating_cost"
	KindTax           Kind = "tax"
	KindMiniCost      Kind = "minicost"
	KindSubtotal      Kind = "subtotal"
	KindFee           Kind = "fee"
	KindDiscount      Kind = "discount"
	KindTotal         Kind = "total"
)

// LineItem is one row of the quote breakdown. Percent is display
// metadata and is zero for rows that have no percentage.
type LineItem struct {
	Kind    Kind
	Code    string
	Label   string
	Percent decimal.Decimal
	Amount  determinism.Money
}

// Breakdown is the ordered, audit-ready rendering of a quote
type Breakdown struct {
	Currency string
	Items    []LineItem
	Summary  string
	Warnings []string
}

// Build renders a single-occurrence result
func Build(res *calc.Result) *Breakdown {
	b := &Breakdown{Currency: res.Currency, Warnings: res.Warnings}
	b.push(KindProfessional, "professional", professionalLabel(res), decimal.Zero, res.ProfessionalCost)
	for _, add := range res.Additions {
		b.push(KindAddition, add.Code, add.Label, add.Percent, add.Value)
	}
	b.pushCore(res)
	for _, mc := range res.MiniCosts {
		b.push(KindMiniCost, mc.Code, mc.Label, decimal.Zero, mc.Value)
	}
	b.pushTotals(res)
	b.Summary = summarize(res)
	return b
}

// BuildSchedule renders an aggregated schedule result. Additions and
// minicosts come from the per-code rollups rather than a single
// occurrence's lists.
func BuildSchedule(res *schedule.Result) *Breakdown {
	b := &Breakdown{Currency: res.Currency, Warnings: res.Warnings}
	b.push(KindProfessional, "professional", professionalLabel(&res.Result), decimal.Zero, res.ProfessionalCost)
	for _, add := range res.Additions {
		b.push(KindAddition, add.Code, add.Label, add.Percent, add.Value)
	}
	b.pushCore(&res.Result)
	for _, mc := range res.MiniCosts {
		b.push(KindMiniCost, mc.Code, mc.Label, decimal.Zero, mc.Value)
	}
	b.pushTotals(&res.Result)
	b.Summary = fmt.Sprintf("%s | %d days, %d hours | weekly %s | monthly %s",
		summarize(&res.Result), res.Days, res.TotalHours, res.Weekly, res.Monthly)
	return b
}

func (b *Breakdown) push(kind Kind, code, label string, percent decimal.Decimal, amount determinism.Money) {
	b.Items = append(b.Items, LineItem{Kind: kind, Code: code, Label: label, Percent: percent, Amount: amount})
}

func (b *Breakdown) pushCore(res *calc.Result) {
	b.push(KindMargin, "margin", "Gross margin", decimal.Zero, res.MarginValue)
	b.push(KindOperatingCost, "operating_cost", "Operating cost", res.CommissionPercent, res.OperatingCost)
	b.push(KindTax, "tax", "Tax over margin", decimal.Zero, res.TaxValue)
}

func (b *Breakdown) pushTotals(res *calc.Result) {
	b.push(KindSubtotal, "subtotal", "Subtotal", decimal.Zero, res.Subtotal)
	b.push(KindFee, "payment_fee", "Payment fee", res.FeePercent, res.FeeValue)
	b.push(KindDiscount, "discount", "Discount", res.DiscountPercent,
		determinism.Zero(res.Currency).Sub(res.DiscountValue))
	b.push(KindTotal, "total", "Final price", decimal.Zero, res.FinalPrice)
}

func professionalLabel(res *calc.Result) string {
	label := "Professional cost - " + res.Effective.Label()
	if res.Required != nil && res.Effective > res.Requested {
		label += " (escalated from " + res.Requested.Label() + ")"
	}
	return label
}

// summarize concatenates the key totals into the short line shown in
// chat messages and admin list views.
func summarize(res *calc.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "professional %s", res.ProfessionalCost)
	fmt.Fprintf(&sb, " | margin %s", res.MarginValue)
	fmt.Fprintf(&sb, " | subtotal %s", res.Subtotal)
	if !res.DiscountValue.IsZero() {
		fmt.Fprintf(&sb, " | discount -%s", res.DiscountValue)
	}
	if !res.FeeValue.IsZero() {
		fmt.Fprintf(&sb, " | fee %s", res.FeeValue)
	}
	fmt.Fprintf(&sb, " | final %s", res.FinalPrice)
	return sb.String()
}
