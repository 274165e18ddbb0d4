// Package rules provides immutable, versioned pricing rule snapshots.
// A snapshot is produced by the rule store, sealed, and from then on is
// read-only for every calculation that consumes it.
package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"carecost/core/determinism"
)

// SnapshotID uniquely identifies a rule snapshot version
type SnapshotID string

// MaxChunkHours is the shift segment size the hour table is defined over
const MaxChunkHours = 12

// AdditivePercents holds the named percentage surcharges of a unit.
// Each is a plain non-negative percent; Specialty and Urgency may
// additionally scale by the hour factor before being added.
type AdditivePercents struct {
	ExtraPatient decimal.Decimal
	Night        decimal.Decimal
	Weekend      decimal.Decimal
	Holiday      decimal.Decimal
	HighRisk     decimal.Decimal
	Specialty    decimal.Decimal
	Urgency      decimal.Decimal

	SpecialtyScaledByHours bool
	UrgencyScaledByHours   bool
}

// PaymentFeeRule maps a (method, period) pair to a fee percent
type PaymentFeeRule struct {
	Method     string
	Period     string
	FeePercent decimal.Decimal
	Active     bool
}

// MiniCostRule is an optional fixed or hour-scaled addon line item
type MiniCostRule struct {
	Code              string
	Label             string
	Value             decimal.Decimal
	ScaledByHours     bool
	ActiveByDefault   bool
	OptionalAtClosing bool
}

// CommissionRule is a named operating-cost percentage applied to margin
type CommissionRule struct {
	Code    string
	Label   string
	Percent decimal.Decimal
	Active  bool
}

// ConditionRule is a clinical-condition rule ("disease rule"). It can
// force a minimum professional tier and add a surcharge percent.
type ConditionRule struct {
	Code             string
	Label            string
	ComplexityTier   int
	MinimumTier      Tier
	SurchargePercent decimal.Decimal
	Active           bool
}

// DiscountPreset is a named discount percent offered at closing
type DiscountPreset struct {
	Name    string
	Percent decimal.Decimal
	Active  bool
}

// Snapshot is IMMUTABLE after Seal. It captures every pricing rule of
// one business unit at one configuration version.
type Snapshot struct {
	// Identity (pass-through metadata, never used in the math)
	ID       SnapshotID
	UnitID   string
	UnitCode string
	UnitName string
	Version  string
	Currency string
	Active   bool

	CreatedAt time.Time

	// Base price of a full 12-hour shift, per professional tier
	Base12h map[Tier]decimal.Decimal

	// Named percentage surcharges
	Percents AdditivePercents

	// Hour-of-segment (1..12) to cost factor; monotonically increasing
	HourRules map[int]decimal.Decimal

	// Margin and profit
	MarginPercent            decimal.Decimal
	FixedProfit              decimal.Decimal
	FixedProfitScaledByHours bool

	// Tax applied over margin
	TaxOverMarginPercent decimal.Decimal

	PaymentFeeRules []PaymentFeeRule
	MiniCostRules   []MiniCostRule
	CommissionRules []CommissionRule
	ConditionRules  []ConditionRule
	DiscountPresets []DiscountPreset

	// Global ordering switch for the fee/discount sequencer
	FeeBeforeDiscount bool

	contentHash determinism.ContentHash
	sealed      bool
}

// Seal validates the snapshot, computes its content hash and freezes it.
// Calculations must only ever receive sealed snapshots.
func (s *Snapshot) Seal() error {
	if s.sealed {
		return nil
	}
	if err := s.Validate(); err != nil {
		return err
	}
	payload, err := s.canonicalBytes()
	if err != nil {
		return fmt.Errorf("hash rule snapshot: %w", err)
	}
	s.contentHash = determinism.ComputeHash(payload)
	s.sealed = true
	return nil
}

// IsSealed reports whether Seal has completed
func (s *Snapshot) IsSealed() bool {
	return s.sealed
}

// ContentHash returns the hash computed at seal time
func (s *Snapshot) ContentHash() determinism.ContentHash {
	if !s.sealed {
		panic("rules: ContentHash called on unsealed snapshot")
	}
	return s.contentHash
}

// Validate checks structural invariants of the rule set
func (s *Snapshot) Validate() error {
	if s.UnitCode == "" {
		return fmt.Errorf("rule snapshot has no unit code")
	}
	if s.Currency == "" {
		return fmt.Errorf("rule snapshot %s has no currency", s.UnitCode)
	}
	for _, tier := range AllTiers {
		base, ok := s.Base12h[tier]
		if !ok {
			return fmt.Errorf("unit %s: missing base 12h price for tier %s", s.UnitCode, tier)
		}
		if base.IsNegative() {
			return fmt.Errorf("unit %s: negative base price for tier %s", s.UnitCode, tier)
		}
	}
	prev := decimal.Zero
	for hour := 1; hour <= MaxChunkHours; hour++ {
		factor, ok := s.HourRules[hour]
		if !ok {
			continue
		}
		if factor.Cmp(prev) < 0 {
			return fmt.Errorf("unit %s: hour factor decreases at hour %d", s.UnitCode, hour)
		}
		prev = factor
	}
	for _, rule := range s.ConditionRules {
		if rule.Code == "" {
			return fmt.Errorf("unit %s: condition rule with empty code", s.UnitCode)
		}
		if !rule.MinimumTier.Valid() {
			return fmt.Errorf("unit %s: condition rule %s has invalid minimum tier", s.UnitCode, rule.Code)
		}
	}
	for _, rule := range s.MiniCostRules {
		if rule.Code == "" {
			return fmt.Errorf("unit %s: minicost rule with empty code", s.UnitCode)
		}
	}
	return nil
}

// BasePriceFor returns the 12-hour base price for a tier
func (s *Snapshot) BasePriceFor(tier Tier) decimal.Decimal {
	return s.Base12h[tier]
}

// FeePercentFor resolves the payment fee percent for an exact
// (method, period) match among active rules. Zero when no rule matches.
func (s *Snapshot) FeePercentFor(method, period string) decimal.Decimal {
	for _, rule := range s.PaymentFeeRules {
		if rule.Active && rule.Method == method && rule.Period == period {
			return rule.FeePercent
		}
	}
	return decimal.Zero
}

// SelectConditionRules returns the active condition rules matching the
// selected codes, in snapshot order. Unknown and inactive codes are
// silently ignored; the quote simply carries no surcharge for them.
func (s *Snapshot) SelectConditionRules(codes []string) []ConditionRule {
	if len(codes) == 0 {
		return nil
	}
	selected := make(map[string]bool, len(codes))
	for _, code := range codes {
		selected[code] = true
	}
	var out []ConditionRule
	for _, rule := range s.ConditionRules {
		if rule.Active && selected[rule.Code] {
			out = append(out, rule)
		}
	}
	return out
}

// DiscountPresetPercent returns the percent of an active preset by name,
// zero when the preset is unknown or inactive.
func (s *Snapshot) DiscountPresetPercent(name string) decimal.Decimal {
	for _, preset := range s.DiscountPresets {
		if preset.Active && preset.Name == name {
			return preset.Percent
		}
	}
	return decimal.Zero
}

// canonicalBytes serializes the snapshot deterministically for hashing.
// Maps are flattened into sorted slices so the hash never depends on
// Go map iteration order.
func (s *Snapshot) canonicalBytes() ([]byte, error) {
	type tierBase struct {
		Tier string `json:"tier"`
		Base string `json:"base"`
	}
	type hourRule struct {
		Hour   int    `json:"hour"`
		Factor string `json:"factor"`
	}
	canon := struct {
		UnitCode          string           `json:"unit_code"`
		Version           string           `json:"version"`
		Currency          string           `json:"currency"`
		Base12h           []tierBase       `json:"base_12h"`
		Percents          AdditivePercents `json:"percents"`
		HourRules         []hourRule       `json:"hour_rules"`
		MarginPercent     string           `json:"margin_percent"`
		FixedProfit       string           `json:"fixed_profit"`
		FixedScaled       bool             `json:"fixed_profit_scaled"`
		TaxPercent        string           `json:"tax_percent"`
		PaymentFees       []PaymentFeeRule `json:"payment_fees"`
		MiniCosts         []MiniCostRule   `json:"minicosts"`
		Commissions       []CommissionRule `json:"commissions"`
		Conditions        []ConditionRule  `json:"conditions"`
		Discounts         []DiscountPreset `json:"discounts"`
		FeeBeforeDiscount bool             `json:"fee_before_discount"`
	}{
		UnitCode:          s.UnitCode,
		Version:           s.Version,
		Currency:          s.Currency,
		Percents:          s.Percents,
		MarginPercent:     s.MarginPercent.String(),
		FixedProfit:       s.FixedProfit.String(),
		FixedScaled:       s.FixedProfitScaledByHours,
		TaxPercent:        s.TaxOverMarginPercent.String(),
		PaymentFees:       s.PaymentFeeRules,
		MiniCosts:         s.MiniCostRules,
		Commissions:       s.CommissionRules,
		Conditions:        s.ConditionRules,
		Discounts:         s.DiscountPresets,
		FeeBeforeDiscount: s.FeeBeforeDiscount,
	}
	for _, tier := range AllTiers {
		canon.Base12h = append(canon.Base12h, tierBase{Tier: tier.String(), Base: s.Base12h[tier].String()})
	}
	hours := make([]int, 0, len(s.HourRules))
	for hour := range s.HourRules {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	for _, hour := range hours {
		canon.HourRules = append(canon.HourRules, hourRule{Hour: hour, Factor: s.HourRules[hour].String()})
	}
	return json.Marshal(canon)
}
