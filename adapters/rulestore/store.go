package rulestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carecost/core/engine"
	"carecost/core/rules"
	"carecost/internal/errors"
	"carecost/internal/logging"
)

// Store resolves rule snapshots from a directory of unit rule files.
// It implements engine.SnapshotProvider. The store is read-mostly:
// files are parsed once at open time and snapshots are immutable, so
// lookups need only a read lock.
type Store struct {
	dir string

	mu         sync.RWMutex
	byVersion  map[rules.SnapshotID]*rules.Snapshot
	byUnitID   map[string]*rules.Snapshot
	byUnitCode map[string]*rules.Snapshot
}

var _ engine.SnapshotProvider = (*Store)(nil)

// Open parses every *.hcl file in dir and indexes the snapshots
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:        dir,
		byVersion:  map[rules.SnapshotID]*rules.Snapshot{},
		byUnitID:   map[string]*rules.Snapshot{},
		byUnitCode: map[string]*rules.Snapshot{},
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "open rules directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		snap, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		s.index(snap)
		logging.Debug("loaded rule file",
			zap.String("file", entry.Name()),
			zap.String("unit", snap.UnitCode),
			zap.String("version", snap.Version),
			zap.String("hash", snap.ContentHash().Hex()[:12]),
		)
	}
	return s, nil
}

func (s *Store) index(snap *rules.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byVersion[snap.ID] = snap
	s.byUnitID[snap.UnitID] = snap
	s.byUnitCode[snap.UnitCode] = snap
}

// GetSnapshot resolves a snapshot by version id, then unit id, then
// unit code. A key that matches nothing is a NOT_FOUND error.
func (s *Store) GetSnapshot(_ context.Context, key engine.SnapshotKey) (*rules.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key.VersionID != "" {
		if snap, ok := s.byVersion[rules.SnapshotID(key.VersionID)]; ok {
			return snap, nil
		}
	}
	if key.UnitID != "" {
		if snap, ok := s.byUnitID[key.UnitID]; ok {
			return snap, nil
		}
	}
	if key.UnitCode != "" {
		if snap, ok := s.byUnitCode[key.UnitCode]; ok {
			return snap, nil
		}
	}
	return nil, errors.NotFound("rule snapshot", key.VersionID+key.UnitID+key.UnitCode)
}

// List returns every loaded snapshot ordered by unit code
func (s *Store) List() []*rules.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*rules.Snapshot, 0, len(s.byUnitCode))
	for _, snap := range s.byUnitCode {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitCode < out[j].UnitCode })
	return out
}

// Seed writes the default rule file for a new unit and indexes the
// resulting snapshot. It refuses to overwrite an existing file.
func (s *Store) Seed(unitID, unitCode, unitName string) (*rules.Snapshot, error) {
	path := filepath.Join(s.dir, unitCode+".hcl")
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Newf(errors.TypeConfig, "rule file already exists: %s", path)
	}
	snap := rules.DefaultSnapshot(unitID, unitCode, unitName)
	if err := snap.Seal(); err != nil {
		return nil, errors.Internal("seal seeded snapshot", err)
	}
	if err := os.WriteFile(path, renderHCL(snap), 0644); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "write seeded rule file", err)
	}
	s.index(snap)
	logging.Info("seeded default rule file",
		zap.String("unit", unitCode),
		zap.String("path", path),
	)
	return snap, nil
}

// EnsureDefault seeds the default rule file for a unit code that has
// no loaded snapshot. Startup calls this when seed_missing is set so a
// fresh install can quote immediately.
func (s *Store) EnsureDefault(unitCode, unitName string) error {
	s.mu.RLock()
	_, ok := s.byUnitCode[unitCode]
	s.mu.RUnlock()
	if ok {
		return nil
	}
	_, err := s.Seed(uuid.NewString(), unitCode, unitName)
	return err
}

// renderHCL writes a snapshot back out as a unit rule file. Only used
// for seeding; operators edit the files by hand afterwards.
func renderHCL(snap *rules.Snapshot) []byte {
	var b strings.Builder
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
	}
	w("unit %q {\n", snap.UnitCode)
	w("  id       = %q\n", snap.UnitID)
	w("  name     = %q\n", snap.UnitName)
	w("  version  = %q\n", snap.Version)
	w("  currency = %q\n", snap.Currency)
	w("  active   = %t\n\n", snap.Active)
	w("  fee_before_discount = %t\n\n", snap.FeeBeforeDiscount)

	w("  base_12h = {\n")
	for _, tier := range rules.AllTiers {
		w("    %s = %s\n", tier, snap.Base12h[tier])
	}
	w("  }\n\n")

	w("  hour_factors = {\n")
	hours := make([]int, 0, len(snap.HourRules))
	for hour := range snap.HourRules {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	for _, hour := range hours {
		w("    \"%d\" = %s\n", hour, snap.HourRules[hour])
	}
	w("  }\n\n")

	w("  percents {\n")
	w("    extra_patient = %s\n", snap.Percents.ExtraPatient)
	w("    night         = %s\n", snap.Percents.Night)
	w("    weekend       = %s\n", snap.Percents.Weekend)
	w("    holiday       = %s\n", snap.Percents.Holiday)
	w("    high_risk     = %s\n", snap.Percents.HighRisk)
	w("    specialty     = %s\n", snap.Percents.Specialty)
	w("    urgency       = %s\n", snap.Percents.Urgency)
	w("    specialty_scaled_by_hours = %t\n", snap.Percents.SpecialtyScaledByHours)
	w("    urgency_scaled_by_hours   = %t\n", snap.Percents.UrgencyScaledByHours)
	w("  }\n\n")

	w("  margin {\n")
	w("    percent                      = %s\n", snap.MarginPercent)
	w("    fixed_profit                 = %s\n", snap.FixedProfit)
	w("    fixed_profit_scaled_by_hours = %t\n", snap.FixedProfitScaledByHours)
	w("    tax_over_margin_percent      = %s\n", snap.TaxOverMarginPercent)
	w("  }\n\n")

	for _, rule := range snap.PaymentFeeRules {
		w("  payment_fee %q %q {\n    percent = %s\n    active  = %t\n  }\n\n",
			rule.Method, rule.Period, rule.FeePercent, rule.Active)
	}
	for _, rule := range snap.MiniCostRules {
		w("  minicost %q {\n", rule.Code)
		w("    label               = %q\n", rule.Label)
		w("    value               = %s\n", rule.Value)
		w("    scaled_by_hours     = %t\n", rule.ScaledByHours)
		w("    active_by_default   = %t\n", rule.ActiveByDefault)
		w("    optional_at_closing = %t\n", rule.OptionalAtClosing)
		w("  }\n\n")
	}
	for _, rule := range snap.CommissionRules {
		w("  commission %q {\n    label   = %q\n    percent = %s\n    active  = %t\n  }\n\n",
			rule.Code, rule.Label, rule.Percent, rule.Active)
	}
	for _, rule := range snap.ConditionRules {
		w("  condition %q {\n", rule.Code)
		w("    label             = %q\n", rule.Label)
		w("    complexity        = %d\n", rule.ComplexityTier)
		w("    minimum_tier      = %q\n", rule.MinimumTier)
		w("    surcharge_percent = %s\n", rule.SurchargePercent)
		w("    active            = %t\n", rule.Active)
		w("  }\n\n")
	}
	for _, preset := range snap.DiscountPresets {
		w("  discount %q {\n    percent = %s\n    active  = %t\n  }\n\n",
			preset.Name, preset.Percent, preset.Active)
	}
	w("}\n")
	return []byte(b.String())
}
