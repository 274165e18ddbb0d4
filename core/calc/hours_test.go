package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"carecost/core/rules"
)

func TestHourFactorStandardTable(t *testing.T) {
	table := rules.StandardHourTable()

	cases := []struct {
		hours int
		want  string
	}{
		{1, "0.20"},
		{6, "0.60"},
		{10, "0.86"},
		{12, "1.00"},
		{24, "2.00"}, // two full segments
		{36, "3.00"}, // three full segments
		{13, "1.20"}, // full segment plus a one-hour remainder
		{22, "1.86"},
	}
	for _, tc := range cases {
		got := ResolveHourFactor(tc.hours, table)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("ResolveHourFactor(%d) = %s, want %s", tc.hours, got, tc.want)
		}
	}
}

func TestHourFactorMonotonicity(t *testing.T) {
	table := rules.StandardHourTable()
	prev := decimal.Zero
	for hours := 1; hours <= 60; hours++ {
		factor := ResolveHourFactor(hours, table)
		if factor.Cmp(prev) < 0 {
			t.Fatalf("factor decreased at %d hours: %s < %s", hours, factor, prev)
		}
		prev = factor
	}
}

func TestHourFactorFallbackForMissingEntries(t *testing.T) {
	// Sparse table: only the full segment is configured
	table := map[int]decimal.Decimal{12: decimal.NewFromInt(1)}

	// 3/12 = 0.25
	if got := ResolveHourFactor(3, table); !got.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("fallback factor for 3h = %s, want 0.25", got)
	}
	// The fallback never goes below 0.01 even for tiny shares
	empty := map[int]decimal.Decimal{}
	if got := ResolveHourFactor(1, empty); got.Cmp(decimal.RequireFromString("0.01")) < 0 {
		t.Errorf("fallback factor for 1h = %s, below the 0.01 floor", got)
	}
}

func TestRoundHours(t *testing.T) {
	if got := RoundHours(7.5); got != 8 {
		t.Errorf("RoundHours(7.5) = %d, want 8", got)
	}
	if got := RoundHours(7.4); got != 7 {
		t.Errorf("RoundHours(7.4) = %d, want 7", got)
	}
	if got := RoundHours(0.3); got != 0 {
		t.Errorf("RoundHours(0.3) = %d, want 0", got)
	}
}

func TestBaseValueAtTenHours(t *testing.T) {
	// The canonical spot check: a Tier1 rate of 180 at 10 hours
	table := rules.StandardHourTable()
	factor := ResolveHourFactor(10, table)
	base := decimal.NewFromInt(180).Mul(factor).Round(2)
	if base.StringFixed(2) != "154.80" {
		t.Errorf("base value for 180 at 10h = %s, want 154.80", base)
	}
}
