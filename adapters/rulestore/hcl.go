// Package rulestore loads per-unit pricing rule files and resolves
// rule snapshots for the engine. Rule files are HCL, one unit per
// file; parsed snapshots are validated and sealed before anything can
// price against them.
package rulestore

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"carecost/core/rules"
	"carecost/internal/errors"
)

var unitSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "unit", LabelNames: []string{"code"}},
	},
}

var unitBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id"},
		{Name: "name"},
		{Name: "version"},
		{Name: "currency"},
		{Name: "active"},
		{Name: "fee_before_discount"},
		{Name: "base_12h", Required: true},
		{Name: "hour_factors"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "percents"},
		{Type: "margin"},
		{Type: "payment_fee", LabelNames: []string{"method", "period"}},
		{Type: "minicost", LabelNames: []string{"code"}},
		{Type: "commission", LabelNames: []string{"code"}},
		{Type: "condition", LabelNames: []string{"code"}},
		{Type: "discount", LabelNames: []string{"name"}},
	},
}

// ParseFile reads one unit rule file and returns a sealed snapshot
func ParseFile(path string) (*rules.Snapshot, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "read rule file", err)
	}
	return Parse(src, path)
}

// Parse parses rule file source into a sealed snapshot
func Parse(src []byte, filename string) (*rules.Snapshot, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("parse %s", filename), diags)
	}

	content, diags := file.Body.Content(unitSchema)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("read %s", filename), diags)
	}
	if len(content.Blocks) != 1 {
		return nil, errors.Newf(errors.TypeParsing, "%s: expected exactly one unit block, found %d", filename, len(content.Blocks))
	}

	block := content.Blocks[0]
	snap, err := parseUnit(block)
	if err != nil {
		return nil, err
	}
	if err := snap.Seal(); err != nil {
		return nil, errors.Rules(fmt.Sprintf("invalid rule set in %s", filename), err)
	}
	return snap, nil
}

func parseUnit(block *hcl.Block) (*rules.Snapshot, error) {
	body, diags := block.Body.Content(unitBodySchema)
	if diags.HasErrors() {
		return nil, errors.Parsing("unit "+block.Labels[0], diags)
	}

	snap := &rules.Snapshot{
		UnitCode:  block.Labels[0],
		Version:   "1",
		Currency:  "BRL",
		Active:    true,
		Base12h:   map[rules.Tier]decimal.Decimal{},
		HourRules: rules.StandardHourTable(),
	}

	attrs := body.Attributes
	snap.UnitID = attrString(attrs, "id", snap.UnitCode)
	snap.UnitName = attrString(attrs, "name", snap.UnitCode)
	snap.Version = attrString(attrs, "version", snap.Version)
	snap.Currency = attrString(attrs, "currency", snap.Currency)
	snap.Active = attrBool(attrs, "active", true)
	snap.FeeBeforeDiscount = attrBool(attrs, "fee_before_discount", false)
	snap.ID = rules.SnapshotID(snap.UnitCode + "@" + snap.Version)

	if attr, ok := attrs["base_12h"]; ok {
		pairs, err := attrMap(attr)
		if err != nil {
			return nil, err
		}
		for tierCode, value := range pairs {
			tier, err := rules.ParseTier(tierCode)
			if err != nil {
				return nil, errors.Newf(errors.TypeParsing, "unit %s: base_12h: %v", snap.UnitCode, err)
			}
			snap.Base12h[tier] = value
		}
	}
	if attr, ok := attrs["hour_factors"]; ok {
		pairs, err := attrMap(attr)
		if err != nil {
			return nil, err
		}
		snap.HourRules = map[int]decimal.Decimal{}
		for hourStr, factor := range pairs {
			var hour int
			if _, err := fmt.Sscanf(hourStr, "%d", &hour); err != nil || hour < 1 || hour > rules.MaxChunkHours {
				return nil, errors.Newf(errors.TypeParsing, "unit %s: hour_factors key %q must be 1..%d", snap.UnitCode, hourStr, rules.MaxChunkHours)
			}
			snap.HourRules[hour] = factor
		}
	}

	for _, inner := range body.Blocks {
		if err := parseUnitBlock(snap, inner); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func parseUnitBlock(snap *rules.Snapshot, block *hcl.Block) error {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return errors.Parsing("unit "+snap.UnitCode+": "+block.Type, diags)
	}
	switch block.Type {
	case "percents":
		snap.Percents = rules.AdditivePercents{
			ExtraPatient:           attrDecimal(attrs, "extra_patient"),
			Night:                  attrDecimal(attrs, "night"),
			Weekend:                attrDecimal(attrs, "weekend"),
			Holiday:                attrDecimal(attrs, "holiday"),
			HighRisk:               attrDecimal(attrs, "high_risk"),
			Specialty:              attrDecimal(attrs, "specialty"),
			Urgency:                attrDecimal(attrs, "urgency"),
			SpecialtyScaledByHours: attrBool(attrs, "specialty_scaled_by_hours", false),
			UrgencyScaledByHours:   attrBool(attrs, "urgency_scaled_by_hours", false),
		}
	case "margin":
		snap.MarginPercent = attrDecimal(attrs, "percent")
		snap.FixedProfit = attrDecimal(attrs, "fixed_profit")
		snap.FixedProfitScaledByHours = attrBool(attrs, "fixed_profit_scaled_by_hours", false)
		snap.TaxOverMarginPercent = attrDecimal(attrs, "tax_over_margin_percent")
	case "payment_fee":
		snap.PaymentFeeRules = append(snap.PaymentFeeRules, rules.PaymentFeeRule{
			Method:     block.Labels[0],
			Period:     block.Labels[1],
			FeePercent: attrDecimal(attrs, "percent"),
			Active:     attrBool(attrs, "active", true),
		})
	case "minicost":
		snap.MiniCostRules = append(snap.MiniCostRules, rules.MiniCostRule{
			Code:              block.Labels[0],
			Label:             attrString(attrs, "label", block.Labels[0]),
			Value:             attrDecimal(attrs, "value"),
			ScaledByHours:     attrBool(attrs, "scaled_by_hours", false),
			ActiveByDefault:   attrBool(attrs, "active_by_default", false),
			OptionalAtClosing: attrBool(attrs, "optional_at_closing", false),
		})
	case "commission":
		snap.CommissionRules = append(snap.CommissionRules, rules.CommissionRule{
			Code:    block.Labels[0],
			Label:   attrString(attrs, "label", block.Labels[0]),
			Percent: attrDecimal(attrs, "percent"),
			Active:  attrBool(attrs, "active", true),
		})
	case "condition":
		tierCode := attrString(attrs, "minimum_tier", "aide")
		tier, err := rules.ParseTier(tierCode)
		if err != nil {
			return errors.Newf(errors.TypeParsing, "unit %s: condition %s: %v", snap.UnitCode, block.Labels[0], err)
		}
		snap.ConditionRules = append(snap.ConditionRules, rules.ConditionRule{
			Code:             block.Labels[0],
			Label:            attrString(attrs, "label", block.Labels[0]),
			ComplexityTier:   attrInt(attrs, "complexity", 1),
			MinimumTier:      tier,
			SurchargePercent: attrDecimal(attrs, "surcharge_percent"),
			Active:           attrBool(attrs, "active", true),
		})
	case "discount":
		snap.DiscountPresets = append(snap.DiscountPresets, rules.DiscountPreset{
			Name:    block.Labels[0],
			Percent: attrDecimal(attrs, "percent"),
			Active:  attrBool(attrs, "active", true),
		})
	}
	return nil
}

// Attribute helpers. Rule files are trusted operator input; malformed
// values fall back to zero values rather than aborting the whole store,
// and Seal's validation catches rule sets that end up unusable.

func attrValue(attrs hcl.Attributes, name string) (cty.Value, bool) {
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, false
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !val.IsKnown() || val.IsNull() {
		return cty.NilVal, false
	}
	return val, true
}

func attrString(attrs hcl.Attributes, name, fallback string) string {
	val, ok := attrValue(attrs, name)
	if !ok || val.Type() != cty.String {
		return fallback
	}
	return val.AsString()
}

func attrBool(attrs hcl.Attributes, name string, fallback bool) bool {
	val, ok := attrValue(attrs, name)
	if !ok || val.Type() != cty.Bool {
		return fallback
	}
	return val.True()
}

func attrDecimal(attrs hcl.Attributes, name string) decimal.Decimal {
	val, ok := attrValue(attrs, name)
	if !ok || val.Type() != cty.Number {
		return decimal.Zero
	}
	return ctyNumber(val)
}

func attrInt(attrs hcl.Attributes, name string, fallback int) int {
	val, ok := attrValue(attrs, name)
	if !ok || val.Type() != cty.Number {
		return fallback
	}
	i, _ := val.AsBigFloat().Int64()
	return int(i)
}

func attrMap(attr *hcl.Attribute) (map[string]decimal.Decimal, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, errors.Parsing("attribute "+attr.Name, diags)
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, errors.Newf(errors.TypeParsing, "attribute %s must be a map of numbers", attr.Name)
	}
	out := map[string]decimal.Decimal{}
	for key, elem := range val.AsValueMap() {
		if elem.Type() != cty.Number {
			return nil, errors.Newf(errors.TypeParsing, "attribute %s: %s is not a number", attr.Name, key)
		}
		out[key] = ctyNumber(elem)
	}
	return out, nil
}

// ctyNumber converts a cty number to decimal through its exact text
// form, never through float64
func ctyNumber(val cty.Value) decimal.Decimal {
	text := val.AsBigFloat().Text('f', -1)
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}
