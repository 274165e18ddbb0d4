// Package engine is the primary API for price quoting. All other
// interfaces (CLI, HTTP, bot flows) are thin wrappers around it. The
// engine owns no state: every call receives an immutable rule snapshot
// from the provider and returns a self-contained quote.
package engine

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"carecost/core/breakdown"
	"carecost/core/calc"
	"carecost/core/determinism"
	"carecost/core/rules"
	"carecost/core/schedule"
	"carecost/internal/errors"
	"carecost/internal/logging"
)

// SnapshotKey identifies the rule snapshot a quote should price
// against. Resolution priority is version id, then unit id, then unit
// code; at least one must be set.
type SnapshotKey struct {
	VersionID string
	UnitID    string
	UnitCode  string
}

// Empty reports whether no lookup field is set
func (k SnapshotKey) Empty() bool {
	return k.VersionID == "" && k.UnitID == "" && k.UnitCode == ""
}

// SnapshotProvider resolves rule snapshots. Absence of an active
// snapshot is a hard error; the engine never fabricates rules.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, key SnapshotKey) (*rules.Snapshot, error)
}

// Engine orchestrates snapshot resolution, calculation and breakdown
type Engine struct {
	provider SnapshotProvider
	ids      *determinism.IDGenerator
}

// New creates an engine backed by the given snapshot provider
func New(provider SnapshotProvider) *Engine {
	return &Engine{
		provider: provider,
		ids:      determinism.NewIDGenerator("quote"),
	}
}

// Quote is a priced single occurrence with its audit breakdown
type Quote struct {
	QuoteID      determinism.StableID
	SnapshotHash string
	Result       *calc.Result
	Breakdown    *breakdown.Breakdown
}

// ScheduleQuote is a priced multi-occurrence schedule
type ScheduleQuote struct {
	QuoteID      determinism.StableID
	SnapshotHash string
	Result       *schedule.Result
	Breakdown    *breakdown.Breakdown
}

// ResolveSnapshot fetches and checks the snapshot for a key
func (e *Engine) ResolveSnapshot(ctx context.Context, key SnapshotKey) (*rules.Snapshot, error) {
	if key.Empty() {
		return nil, errors.Input("a version id, unit id or unit code is required")
	}
	snap, err := e.provider.GetSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if snap == nil || !snap.Active {
		return nil, errors.NotFound("active rule snapshot", key.UnitCode+key.UnitID+key.VersionID)
	}
	if !snap.IsSealed() {
		return nil, errors.New(errors.TypeRules, "provider returned an unsealed snapshot")
	}
	return snap, nil
}

// Quote prices a single occurrence against the resolved snapshot.
// Identical (snapshot, input) pairs produce identical quote IDs and
// byte-identical results.
func (e *Engine) Quote(ctx context.Context, key SnapshotKey, in *calc.Input) (*Quote, error) {
	snap, err := e.ResolveSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	res, err := calc.Calculate(snap, in)
	if err != nil {
		return nil, err
	}
	quote := &Quote{
		QuoteID:      e.quoteID(snap, in, nil),
		SnapshotHash: snap.ContentHash().Hex(),
		Result:       res,
		Breakdown:    breakdown.Build(res),
	}
	logging.Debug("quote computed",
		zap.String("unit", snap.UnitCode),
		zap.String("quote_id", string(quote.QuoteID)),
		zap.String("final", res.FinalPrice.String()),
		zap.Bool("below_cost_clamped", res.BelowCostClamped),
	)
	return quote, nil
}

// QuoteSchedule prices a calendar of occurrences and aggregates the
// totals, sequencing fee and discount once on the aggregate.
func (e *Engine) QuoteSchedule(ctx context.Context, key SnapshotKey, in *calc.Input, sched *schedule.Schedule) (*ScheduleQuote, error) {
	snap, err := e.ResolveSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	res, err := schedule.Aggregate(snap, in, sched)
	if err != nil {
		return nil, err
	}
	quote := &ScheduleQuote{
		QuoteID:      e.quoteID(snap, in, sched),
		SnapshotHash: snap.ContentHash().Hex(),
		Result:       res,
		Breakdown:    breakdown.BuildSchedule(res),
	}
	logging.Debug("schedule quote computed",
		zap.String("unit", snap.UnitCode),
		zap.String("quote_id", string(quote.QuoteID)),
		zap.Int("days", res.Days),
		zap.String("final", res.FinalPrice.String()),
	)
	return quote, nil
}

// quoteID derives a stable ID from the snapshot hash and the canonical
// input serialization. encoding/json sorts map keys, so the override
// map never perturbs the ID.
func (e *Engine) quoteID(snap *rules.Snapshot, in *calc.Input, sched *schedule.Schedule) determinism.StableID {
	payload, err := json.Marshal(struct {
		Input    *calc.Input        `json:"input"`
		Schedule *schedule.Schedule `json:"schedule,omitempty"`
	}{Input: in, Schedule: sched})
	if err != nil {
		// calc.Input contains only marshalable fields
		payload = []byte(err.Error())
	}
	return e.ids.Generate(snap.ContentHash().Hex(), string(payload))
}
