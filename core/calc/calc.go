package calc

import (
	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
	"carecost/internal/errors"
)

// Input describes one billable occurrence of service
type Input struct {
	// Tier is the professional tier the customer asked for
	Tier rules.Tier

	// Hours of service; non-integer values are rounded to the nearest
	// whole hour before segmenting
	Hours float64

	// Patients served in the same home, at least 1
	Patients int

	PaymentMethod string
	PaymentPeriod string

	// ConditionCodes selects clinical condition rules from the snapshot
	ConditionCodes []string

	// DiscountPreset names an active preset in the snapshot, optional
	DiscountPreset        string
	ManualDiscountPercent decimal.Decimal

	// DiscountAmount is an optional fixed discount, applied after the
	// percentage discount under either sequencer ordering
	DiscountAmount decimal.Decimal

	// MiniCostOverrides forces addons on or off by code; absent codes
	// keep their rule-set default
	MiniCostOverrides map[string]bool

	Night     bool
	Weekend   bool
	Holiday   bool
	HighRisk  bool
	Specialty bool
	Urgency   bool
}

// Validate rejects inputs the engine must not price. No partial result
// is ever produced for an invalid input.
func (in *Input) Validate() error {
	if !in.Tier.Valid() {
		return errors.Input("professional tier is required")
	}
	if in.Hours <= 0 {
		return errors.Input("hours must be greater than zero")
	}
	if RoundHours(in.Hours) < 1 {
		return errors.Input("hours round to zero; at least one whole hour is required")
	}
	if in.Patients <= 0 {
		return errors.Input("patient count must be greater than zero")
	}
	return nil
}

// Result carries every intermediate value of a priced occurrence (or a
// priced schedule aggregate), so the breakdown can show the full audit
// trail. All monetary fields are rounded and non-negative.
type Result struct {
	Currency     string
	UnitCode     string
	RulesVersion string

	HourFactor decimal.Decimal
	TotalHours int

	Requested rules.Tier
	Effective rules.Tier
	Required  *rules.Tier

	// BaseValue is base12h[effective] x hour factor
	BaseValue determinism.Money

	Additions    []Contribution
	TotalPercent decimal.Decimal

	// ProfessionalCost is the raw staffing cost: base x (1 + percent)
	ProfessionalCost determinism.Money

	MarginValue       determinism.Money
	CommissionPercent decimal.Decimal
	OperatingCost     determinism.Money
	TaxValue          determinism.Money

	MiniCosts      []MiniCostValue
	MiniCostsTotal determinism.Money

	// Subtotal = professional + margin + operating cost + tax + minicosts
	Subtotal determinism.Money

	FeePercent       decimal.Decimal
	FeeValue         determinism.Money
	DiscountPercent  decimal.Decimal
	DiscountValue    determinism.Money
	FinalPrice       determinism.Money
	BelowCostClamped bool

	Warnings []string
}

// Compute runs the pipeline through the subtotal, leaving fee and
// discount unapplied. The schedule aggregator uses this per occurrence
// and sequences once on the aggregate.
func Compute(snap *rules.Snapshot, in *Input) (*Result, error) {
	if snap == nil {
		return nil, errors.New(errors.TypeRules, "rule snapshot is required")
	}
	if !snap.IsSealed() {
		return nil, errors.New(errors.TypeRules, "rule snapshot must be sealed before pricing")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hours := RoundHours(in.Hours)
	hourFactor := ResolveHourFactor(hours, snap.HourRules)

	selected := snap.SelectConditionRules(in.ConditionCodes)
	tiers := ResolveEffectiveTier(in.Tier, selected)

	base := determinism.NewMoneyFromDecimal(
		snap.BasePriceFor(tiers.Effective).Mul(hourFactor), snap.Currency,
	).Round2()

	totalPercent, additions := ComposePercents(snap, in, selected, hourFactor)
	for i := range additions {
		additions[i].Value = base.MulPercent(additions[i].Percent)
	}
	professional := base.Mul(decimalOne.Add(totalPercent.Div(oneHundred))).Round2().ClampNonNegative()

	margin := ResolveMargin(snap, professional, hourFactor)
	miniCosts, miniTotal := ResolveMiniCosts(snap, in.MiniCostOverrides, hourFactor)

	subtotal := professional.
		Add(margin.MarginValue).
		Add(margin.OperatingCost).
		Add(margin.TaxValue).
		Add(miniTotal).
		Round2()

	return &Result{
		Currency:          snap.Currency,
		UnitCode:          snap.UnitCode,
		RulesVersion:      snap.Version,
		HourFactor:        hourFactor,
		TotalHours:        hours,
		Requested:         tiers.Requested,
		Effective:         tiers.Effective,
		Required:          tiers.Required,
		BaseValue:         base,
		Additions:         additions,
		TotalPercent:      totalPercent,
		ProfessionalCost:  professional,
		MarginValue:       margin.MarginValue,
		CommissionPercent: margin.CommissionPercent,
		OperatingCost:     margin.OperatingCost,
		TaxValue:          margin.TaxValue,
		MiniCosts:         miniCosts,
		MiniCostsTotal:    miniTotal,
		Subtotal:          subtotal,
	}, nil
}

// ApplyFeeAndDiscount runs the sequencer on a computed result, filling
// the fee, discount and final price fields.
func ApplyFeeAndDiscount(snap *rules.Snapshot, res *Result, in *Input) {
	feePercent := snap.FeePercentFor(in.PaymentMethod, in.PaymentPeriod)
	discountPercent := ResolveDiscountPercent(snap, in)
	discountAmount := determinism.NewMoneyFromDecimal(in.DiscountAmount, snap.Currency).ClampNonNegative().Round2()

	seq := Sequence(snap, res.Subtotal, res.ProfessionalCost, feePercent, discountPercent, discountAmount)
	res.FeePercent = seq.FeePercent
	res.FeeValue = seq.FeeValue
	res.DiscountPercent = seq.DiscountPercent
	res.DiscountValue = seq.DiscountValue
	res.FinalPrice = seq.FinalPrice
	res.BelowCostClamped = seq.BelowCostClamped
	if seq.BelowCostClamped {
		res.Warnings = append(res.Warnings, "discount clamped: final price may not fall below professional cost")
	}
}

// Calculate prices a single occurrence end to end
func Calculate(snap *rules.Snapshot, in *Input) (*Result, error) {
	res, err := Compute(snap, in)
	if err != nil {
		return nil, err
	}
	ApplyFeeAndDiscount(snap, res, in)
	return res, nil
}
