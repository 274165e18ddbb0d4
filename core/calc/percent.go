package calc

import (
	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

// Contribution names one additive percentage term for the breakdown.
// Value is the monetary effect of the term on the base price; it is
// filled in by the pipeline after composition.
type Contribution struct {
	Code    string
	Label   string
	Percent decimal.Decimal
	Value   determinism.Money
}

// ComposePercents sums every additive surcharge that applies to a
// single billable occurrence and returns the named contributions in a
// stable presentation order. There is deliberately no clamp at 100%:
// highly escalated cases legitimately exceed it.
//
// The extra-patient surcharge is a single flat addition whenever more
// than one patient is served, regardless of how many extra patients
// there are. That matches the rule-driven engine's historical behavior;
// the legacy flat-rate calculator scales per patient instead.
func ComposePercents(snap *rules.Snapshot, in *Input, selected []rules.ConditionRule, hourFactor decimal.Decimal) (decimal.Decimal, []Contribution) {
	var terms []Contribution

	if in.Patients > 1 && snap.Percents.ExtraPatient.IsPositive() {
		terms = append(terms, Contribution{
			Code:    "extra_patient",
			Label:   "Additional patient",
			Percent: snap.Percents.ExtraPatient,
		})
	}
	for _, rule := range selected {
		if rule.SurchargePercent.IsPositive() {
			terms = append(terms, Contribution{
				Code:    "condition:" + rule.Code,
				Label:   rule.Label,
				Percent: rule.SurchargePercent,
			})
		}
	}
	if in.Night && snap.Percents.Night.IsPositive() {
		terms = append(terms, Contribution{Code: "night", Label: "Night shift", Percent: snap.Percents.Night})
	}
	if in.Weekend && snap.Percents.Weekend.IsPositive() {
		terms = append(terms, Contribution{Code: "weekend", Label: "Weekend", Percent: snap.Percents.Weekend})
	}
	if in.Holiday && snap.Percents.Holiday.IsPositive() {
		terms = append(terms, Contribution{Code: "holiday", Label: "Holiday", Percent: snap.Percents.Holiday})
	}
	if in.HighRisk && snap.Percents.HighRisk.IsPositive() {
		terms = append(terms, Contribution{Code: "high_risk", Label: "High-risk patient", Percent: snap.Percents.HighRisk})
	}
	if in.Specialty && snap.Percents.Specialty.IsPositive() {
		terms = append(terms, Contribution{
			Code:    "specialty",
			Label:   "Specialized care",
			Percent: scalePercent(snap.Percents.Specialty, snap.Percents.SpecialtyScaledByHours, hourFactor),
		})
	}
	if in.Urgency && snap.Percents.Urgency.IsPositive() {
		terms = append(terms, Contribution{
			Code:    "urgency",
			Label:   "Short-notice staffing",
			Percent: scalePercent(snap.Percents.Urgency, snap.Percents.UrgencyScaledByHours, hourFactor),
		})
	}

	total := decimal.Zero
	for _, term := range terms {
		total = total.Add(term.Percent)
	}
	return determinism.Round2(total), terms
}

// scalePercent multiplies a configured percent by the hour factor when
// the rule set flags it as hour-scaled. This is a plain multiplication,
// not a clamp: long shifts can produce large percentages.
func scalePercent(percent decimal.Decimal, scaled bool, hourFactor decimal.Decimal) decimal.Decimal {
	if !scaled {
		return percent
	}
	return determinism.Round2(percent.Mul(hourFactor))
}
