// Package calc implements the single-occurrence pricing pipeline: hour
// factor resolution, tier escalation, percentage composition, margin,
// commission and tax derivation, minicost addons and the fee/discount
// sequencer. The pipeline is pure; it never mutates the rule snapshot.
package calc

import (
	"math"

	"github.com/shopspring/decimal"

	"carecost/core/determinism"
	"carecost/core/rules"
)

var (
	twelve         = decimal.NewFromInt(rules.MaxChunkHours)
	minChunkFactor = decimal.RequireFromString("0.01")
	oneHundred     = decimal.NewFromInt(100)
	decimalOne     = decimal.NewFromInt(1)
)

// RoundHours normalizes an hour count to the nearest whole hour before
// segmenting. Both historical engines round first, so a 7.5h request is
// billed as 8h.
func RoundHours(hours float64) int {
	return int(math.Round(hours))
}

// ResolveHourFactor converts a whole hour count into a cost multiplier.
// The count is decomposed into segments of at most twelve hours; each
// full segment bills the full 12h factor and the remainder bills its
// table entry. A partial shift therefore costs less than proportionally
// while back-to-back 12h segments bill as whole multiples.
func ResolveHourFactor(hours int, table map[int]decimal.Decimal) decimal.Decimal {
	if hours <= 0 {
		return decimal.Zero
	}
	full := hours / rules.MaxChunkHours
	remainder := hours % rules.MaxChunkHours

	sum := decimal.Zero
	if full > 0 {
		sum = chunkFactor(rules.MaxChunkHours, table).Mul(decimal.NewFromInt(int64(full)))
	}
	if remainder > 0 {
		sum = sum.Add(chunkFactor(remainder, table))
	}
	return determinism.Round2(sum)
}

// chunkFactor looks up the factor for one segment of 1..12 hours.
// Absent table entries fall back to a linear share of the segment,
// floored at 0.01.
func chunkFactor(size int, table map[int]decimal.Decimal) decimal.Decimal {
	if factor, ok := table[size]; ok {
		return factor
	}
	linear := determinism.Round2(decimal.NewFromInt(int64(size)).Div(twelve))
	if linear.Cmp(minChunkFactor) < 0 {
		return minChunkFactor
	}
	return linear
}
