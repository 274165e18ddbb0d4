package api

import (
	"time"

	"github.com/shopspring/decimal"

	"carecost/api/envelope"
	"carecost/core/breakdown"
	"carecost/core/calc"
	"carecost/core/engine"
	"carecost/core/rules"
	"carecost/core/schedule"
	"carecost/internal/errors"
)

// QuoteRequest prices a single occurrence
type QuoteRequest struct {
	// Snapshot lookup, in priority order
	VersionID string `json:"version_id,omitempty"`
	UnitID    string `json:"unit_id,omitempty"`
	UnitCode  string `json:"unit_code,omitempty"`

	Tier     string  `json:"tier"`
	Hours    float64 `json:"hours"`
	Patients int     `json:"patients,omitempty"`

	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentPeriod string `json:"payment_period,omitempty"`

	Conditions []string `json:"conditions,omitempty"`

	DiscountPreset        string          `json:"discount_preset,omitempty"`
	ManualDiscountPercent decimal.Decimal `json:"manual_discount_percent"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`

	MiniCostOverrides map[string]bool `json:"minicost_overrides,omitempty"`

	Night     bool `json:"night,omitempty"`
	Weekend   bool `json:"weekend,omitempty"`
	Holiday   bool `json:"holiday,omitempty"`
	HighRisk  bool `json:"high_risk,omitempty"`
	Specialty bool `json:"specialty,omitempty"`
	Urgency   bool `json:"urgency,omitempty"`
}

// OccurrenceRequest is one service date of a schedule request
type OccurrenceRequest struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Holiday bool    `json:"holiday,omitempty"`

	// Weekend overrides the classification derived from the date
	Weekend *bool `json:"weekend,omitempty"`
}

// ScheduleQuoteRequest prices a calendar of occurrences
type ScheduleQuoteRequest struct {
	QuoteRequest
	Occurrences []OccurrenceRequest `json:"occurrences"`
}

// FlatRateRequest prices against the legacy flat-rate card
type FlatRateRequest struct {
	Tier            string          `json:"tier"`
	Hours           float64         `json:"hours"`
	Patients        int             `json:"patients,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// BreakdownItem is one rendered line of the audit breakdown
type BreakdownItem struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Label   string `json:"label"`
	Percent string `json:"percent,omitempty"`
	Amount  string `json:"amount"`
}

// QuoteResponse is the wire rendering of a priced occurrence. Monetary
// fields are fixed two-decimal strings; downstream consumers display
// them raw, so formatting must stay stable.
type QuoteResponse struct {
	QuoteID  string `json:"quote_id"`
	Unit     string `json:"unit"`
	Currency string `json:"currency"`

	RequestedTier string `json:"requested_tier"`
	EffectiveTier string `json:"effective_tier"`
	RequiredTier  string `json:"required_tier,omitempty"`

	HourFactor   string `json:"hour_factor,omitempty"`
	TotalHours   int    `json:"total_hours"`
	TotalPercent string `json:"total_percent"`

	Professional   string `json:"professional"`
	Margin         string `json:"margin"`
	OperatingCost  string `json:"operating_cost"`
	Tax            string `json:"tax"`
	MinicostsTotal string `json:"minicosts_total"`
	Subtotal       string `json:"subtotal"`

	FeePercent      string `json:"fee_percent"`
	Fee             string `json:"fee"`
	DiscountPercent string `json:"discount_percent"`
	Discount        string `json:"discount"`
	Final           string `json:"final"`

	BelowCostClamped bool     `json:"below_cost_clamped,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`

	Breakdown []BreakdownItem `json:"breakdown"`
	Summary   string          `json:"summary"`

	Metadata *envelope.Metadata `json:"metadata,omitempty"`
}

// ScheduleQuoteResponse adds the schedule-level figures
type ScheduleQuoteResponse struct {
	QuoteResponse
	Days    int    `json:"days"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
}

// FlatRateResponse is the legacy calculator's wire rendering
type FlatRateResponse struct {
	Gross         string `json:"gross"`
	ExtraPatients string `json:"extra_patients"`
	Discount      string `json:"discount"`
	Final         string `json:"final"`
}

// UnitInfo describes one loaded rule snapshot
type UnitInfo struct {
	UnitID       string `json:"unit_id"`
	UnitCode     string `json:"unit_code"`
	UnitName     string `json:"unit_name"`
	Version      string `json:"version"`
	Currency     string `json:"currency"`
	Active       bool   `json:"active"`
	SnapshotHash string `json:"snapshot_hash"`
}

// ErrorResponse is the wire form of a failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ToInput maps the wire request to an engine input. An omitted patient
// count defaults to one; the engine rejects explicit non-positive
// counts.
func (r *QuoteRequest) ToInput() (*calc.Input, error) {
	tier, err := parseTierWire(r.Tier)
	if err != nil {
		return nil, err
	}
	patients := r.Patients
	if patients == 0 {
		patients = 1
	}
	return &calc.Input{
		Tier:                  tier,
		Hours:                 r.Hours,
		Patients:              patients,
		PaymentMethod:         r.PaymentMethod,
		PaymentPeriod:         r.PaymentPeriod,
		ConditionCodes:        r.Conditions,
		DiscountPreset:        r.DiscountPreset,
		ManualDiscountPercent: r.ManualDiscountPercent,
		DiscountAmount:        r.DiscountAmount,
		MiniCostOverrides:     r.MiniCostOverrides,
		Night:                 r.Night,
		Weekend:               r.Weekend,
		Holiday:               r.Holiday,
		HighRisk:              r.HighRisk,
		Specialty:             r.Specialty,
		Urgency:               r.Urgency,
	}, nil
}

func parseTierWire(s string) (rules.Tier, error) {
	tier, err := rules.ParseTier(s)
	if err != nil {
		return 0, errors.Input(err.Error())
	}
	return tier, nil
}

// ToSchedule maps occurrence requests to a schedule, deriving weekend
// classification from the date when not given explicitly
func (r *ScheduleQuoteRequest) ToSchedule() (*schedule.Schedule, error) {
	if len(r.Occurrences) == 0 {
		return nil, errors.Input("schedule must contain at least one occurrence")
	}
	sched := &schedule.Schedule{}
	for _, occ := range r.Occurrences {
		date, err := time.Parse("2006-01-02", occ.Date)
		if err != nil {
			return nil, errors.Inputf("invalid occurrence date %q, expected YYYY-MM-DD", occ.Date)
		}
		weekend := schedule.DeriveWeekend(date)
		if occ.Weekend != nil {
			weekend = *occ.Weekend
		}
		sched.Occurrences = append(sched.Occurrences, schedule.Occurrence{
			Date:    date,
			Hours:   occ.Hours,
			Holiday: occ.Holiday,
			Weekend: weekend,
		})
	}
	return sched, nil
}

func renderBreakdown(b *breakdown.Breakdown) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(b.Items))
	for _, item := range b.Items {
		wire := BreakdownItem{
			Kind:   string(item.Kind),
			Code:   item.Code,
			Label:  item.Label,
			Amount: item.Amount.Amount().StringFixed(2),
		}
		if !item.Percent.IsZero() {
			wire.Percent = item.Percent.String()
		}
		items = append(items, wire)
	}
	return items
}

func renderQuote(res *calc.Result, b *breakdown.Breakdown, quoteID string) QuoteResponse {
	resp := QuoteResponse{
		QuoteID:          quoteID,
		Unit:             res.UnitCode,
		Currency:         res.Currency,
		RequestedTier:    res.Requested.String(),
		EffectiveTier:    res.Effective.String(),
		HourFactor:       res.HourFactor.String(),
		TotalHours:       res.TotalHours,
		TotalPercent:     res.TotalPercent.String(),
		Professional:     res.ProfessionalCost.Amount().StringFixed(2),
		Margin:           res.MarginValue.Amount().StringFixed(2),
		OperatingCost:    res.OperatingCost.Amount().StringFixed(2),
		Tax:              res.TaxValue.Amount().StringFixed(2),
		MinicostsTotal:   res.MiniCostsTotal.Amount().StringFixed(2),
		Subtotal:         res.Subtotal.Amount().StringFixed(2),
		FeePercent:       res.FeePercent.String(),
		Fee:              res.FeeValue.Amount().StringFixed(2),
		DiscountPercent:  res.DiscountPercent.String(),
		Discount:         res.DiscountValue.Amount().StringFixed(2),
		Final:            res.FinalPrice.Amount().StringFixed(2),
		BelowCostClamped: res.BelowCostClamped,
		Warnings:         res.Warnings,
		Breakdown:        renderBreakdown(b),
		Summary:          b.Summary,
	}
	if res.Required != nil {
		resp.RequiredTier = res.Required.String()
	}
	return resp
}

// RenderQuote renders an engine quote to the wire shape. The CLI uses
// it for --format json so CLI and HTTP output stay identical.
func RenderQuote(q *engine.Quote) QuoteResponse {
	return renderQuote(q.Result, q.Breakdown, string(q.QuoteID))
}

// RenderScheduleQuote renders a schedule quote to the wire shape
func RenderScheduleQuote(q *engine.ScheduleQuote) ScheduleQuoteResponse {
	resp := ScheduleQuoteResponse{
		QuoteResponse: renderQuote(&q.Result.Result, q.Breakdown, string(q.QuoteID)),
		Days:          q.Result.Days,
		Weekly:        q.Result.Weekly.Amount().StringFixed(2),
		Monthly:       q.Result.Monthly.Amount().StringFixed(2),
	}
	resp.HourFactor = ""
	return resp
}
