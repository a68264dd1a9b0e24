// AngelaMos | 2026
// upgrade.go

package tier

import (
	"github.com/shopspring/decimal"
)

// Evaluate returns the tier an affiliate should hold for the given
// accumulated earnings. Thresholds are checked from the top down, so a single
// jump in earnings can skip intermediate tiers. Tiers never go down.
func Evaluate(current Tier, earnings decimal.Decimal) Tier {
	for i := len(table) - 1; i >= 0; i-- {
		def := table[i]
		if def.Tier <= current {
			break
		}
		if earnings.GreaterThanOrEqual(def.Threshold) {
			return def.Tier
		}
	}
	return current
}

type Progress struct {
	Tier          Tier
	Rate          decimal.Decimal
	Percent       float64
	NextTier      *Tier
	NextThreshold *decimal.Decimal
	NextRate      *decimal.Decimal
}

// ProgressFor reports how far earnings have moved from the current tier's
// threshold toward the next one, as a percentage rounded to one decimal.
// The top tier always reports 100.
func ProgressFor(current Tier, earnings decimal.Decimal) Progress {
	def := current.Definition()
	p := Progress{
		Tier: def.Tier,
		Rate: def.Rate,
	}

	next, ok := def.Tier.Next()
	if !ok {
		p.Percent = 100
		return p
	}

	nextDef := next.Definition()
	span := nextDef.Threshold.Sub(def.Threshold)
	pct := earnings.Sub(def.Threshold).Div(span).Mul(hundred)

	switch {
	case pct.IsNegative():
		pct = decimal.Zero
	case pct.GreaterThan(hundred):
		pct = hundred
	}

	p.Percent = pct.Round(1).InexactFloat64()
	p.NextTier = &next
	p.NextThreshold = &nextDef.Threshold
	p.NextRate = &nextDef.Rate

	return p
}
