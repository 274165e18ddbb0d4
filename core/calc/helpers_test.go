package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"carecost/core/rules"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func sealedSnapshot(t *testing.T) *rules.Snapshot {
	t.Helper()
	snap := rules.DefaultSnapshot("unit-test", "hq", "Headquarters")
	if err := snap.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	return snap
}
