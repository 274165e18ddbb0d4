// Package schedule aggregates the single-occurrence pricing pipeline
// over a calendar of service dates. Monetary fields accumulate by
// simple running sum of already-rounded per-occurrence values, so
// rounding error stays occurrence-local. Fee and discount run exactly
// once, on the aggregate subtotal.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"carecost/core/calc"
	"carecost/core/determinism"
	"carecost/core/rules"
	"carecost/internal/errors"
)

// Occurrence is one service date in a schedule. Hours, holiday and
// weekend classification vary per occurrence; everything else about the
// request (tier, patients, conditions, flags) is shared.
type Occurrence struct {
	Date    time.Time
	Hours   float64
	Holiday bool
	Weekend bool
}

// DeriveWeekend classifies a date for callers that do not set the
// weekend flag explicitly
func DeriveWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Schedule is an ordered list of service occurrences
type Schedule struct {
	Occurrences []Occurrence
}

// TotalHours sums the rounded hour counts of all occurrences
func (s *Schedule) TotalHours() int {
	total := 0
	for _, occ := range s.Occurrences {
		total += calc.RoundHours(occ.Hours)
	}
	return total
}

// ActiveDays is the number of billed occurrences
func (s *Schedule) ActiveDays() int {
	return len(s.Occurrences)
}

// AggregatedItem is a per-code monetary rollup across the schedule
type AggregatedItem struct {
	Code  string
	Label string

	// Percent is the configured percent of the first occurrence where
	// the term appeared, as display metadata; hour-scaled terms can
	// vary per occurrence
	Percent decimal.Decimal

	Value determinism.Money
	Count int
}

// Result is the priced schedule: the aggregated pipeline values plus
// the fee/discount sequencing applied once and the per-period
// presentation conveniences.
type Result struct {
	calc.Result

	Days      int
	Weekly    determinism.Money
	Monthly   determinism.Money
	Additions []AggregatedItem
	MiniCosts []AggregatedItem
}

// Aggregate prices every occurrence with the shared request parameters
// and rolls the results up. The shared input's Hours, Holiday and
// Weekend fields are ignored; each occurrence supplies its own.
func Aggregate(snap *rules.Snapshot, shared *calc.Input, sched *Schedule) (*Result, error) {
	if sched == nil || len(sched.Occurrences) == 0 {
		return nil, errors.Input("schedule must contain at least one occurrence")
	}

	currency := snap.Currency
	agg := &Result{Days: sched.ActiveDays()}
	agg.Currency = currency
	agg.UnitCode = snap.UnitCode
	agg.RulesVersion = snap.Version

	sum := struct {
		base, professional, margin, opCost, tax, mini, subtotal determinism.Money
	}{
		base:         determinism.Zero(currency),
		professional: determinism.Zero(currency),
		margin:       determinism.Zero(currency),
		opCost:       determinism.Zero(currency),
		tax:          determinism.Zero(currency),
		mini:         determinism.Zero(currency),
		subtotal:     determinism.Zero(currency),
	}
	additions := determinism.NewStableMap[string, *AggregatedItem]()
	miniCosts := determinism.NewStableMap[string, *AggregatedItem]()

	for _, occ := range sched.Occurrences {
		in := *shared
		in.Hours = occ.Hours
		in.Holiday = occ.Holiday
		in.Weekend = occ.Weekend

		res, err := calc.Compute(snap, &in)
		if err != nil {
			return nil, err
		}

		agg.TotalHours += res.TotalHours
		agg.Requested = res.Requested
		agg.Effective = res.Effective
		agg.Required = res.Required
		agg.CommissionPercent = res.CommissionPercent

		sum.base = sum.base.Add(res.BaseValue)
		sum.professional = sum.professional.Add(res.ProfessionalCost)
		sum.margin = sum.margin.Add(res.MarginValue)
		sum.opCost = sum.opCost.Add(res.OperatingCost)
		sum.tax = sum.tax.Add(res.TaxValue)
		sum.mini = sum.mini.Add(res.MiniCostsTotal)
		sum.subtotal = sum.subtotal.Add(res.Subtotal)

		for _, add := range res.Additions {
			accumulate(additions, add.Code, add.Label, add.Percent, add.Value, currency)
		}
		for _, mc := range res.MiniCosts {
			accumulate(miniCosts, mc.Code, mc.Label, decimal.Zero, mc.Value, currency)
		}
	}

	agg.BaseValue = sum.base
	agg.ProfessionalCost = sum.professional
	agg.MarginValue = sum.margin
	agg.OperatingCost = sum.opCost
	agg.TaxValue = sum.tax
	agg.MiniCostsTotal = sum.mini
	agg.Subtotal = sum.subtotal
	agg.Additions = collect(additions)
	agg.MiniCosts = collect(miniCosts)

	calc.ApplyFeeAndDiscount(snap, &agg.Result, shared)

	days := decimal.NewFromInt(int64(agg.Days))
	agg.Weekly = agg.FinalPrice.Div(days).Mul(decimal.NewFromInt(7)).Round2()
	agg.Monthly = agg.FinalPrice.Div(days).Mul(decimal.NewFromInt(30)).Round2()
	return agg, nil
}

func accumulate(m *determinism.StableMap[string, *AggregatedItem], code, label string, percent decimal.Decimal, value determinism.Money, currency string) {
	item, ok := m.Get(code)
	if !ok {
		item = &AggregatedItem{Code: code, Label: label, Percent: percent, Value: determinism.Zero(currency)}
		m.Set(code, item)
	}
	item.Value = item.Value.Add(value)
	item.Count++
}

func collect(m *determinism.StableMap[string, *AggregatedItem]) []AggregatedItem {
	out := make([]AggregatedItem, 0, m.Len())
	m.Range(func(_ string, item *AggregatedItem) bool {
		out = append(out, *item)
		return true
	})
	return out
}
