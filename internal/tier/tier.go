// AngelaMos | 2026
// tier.go

// Package tier holds the static commission tier table and the rules that
// move an affiliate between tiers.
package tier

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

type Tier int

const (
	Starter Tier = iota
	Pro
	Elite
)

type Definition struct {
	Tier      Tier
	Name      string
	Rate      decimal.Decimal
	Threshold decimal.Decimal
}

// table is ordered by threshold ascending and indexed by Tier.
var table = [...]Definition{
	Starter: {
		Tier:      Starter,
		Name:      "Starter",
		Rate:      decimal.NewFromInt(20),
		Threshold: decimal.Zero,
	},
	Pro: {
		Tier:      Pro,
		Name:      "Pro",
		Rate:      decimal.NewFromInt(25),
		Threshold: decimal.NewFromInt(500),
	},
	Elite: {
		Tier:      Elite,
		Name:      "Elite",
		Rate:      decimal.NewFromInt(30),
		Threshold: decimal.NewFromInt(2000),
	},
}

var hundred = decimal.NewFromInt(100)

func All() []Definition {
	out := make([]Definition, len(table))
	copy(out, table[:])
	return out
}

func Parse(name string) (Tier, error) {
	for _, def := range table {
		if def.Name == name {
			return def.Tier, nil
		}
	}
	return Starter, fmt.Errorf("parse tier %q: %w", name, core.ErrNotFound)
}

func (t Tier) Valid() bool {
	return t >= Starter && int(t) < len(table)
}

func (t Tier) Definition() Definition {
	if !t.Valid() {
		return table[Starter]
	}
	return table[t]
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return table[t].Name
}

// Rate is the commission rate as a percentage, e.g. 25 for Pro.
func (t Tier) Rate() decimal.Decimal {
	return t.Definition().Rate
}

func (t Tier) Threshold() decimal.Decimal {
	return t.Definition().Threshold
}

func (t Tier) Next() (Tier, bool) {
	next := t + 1
	if !next.Valid() {
		return t, false
	}
	return next, true
}

// Commission is amount x rate, rounded to cents.
func (t Tier) Commission(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(t.Rate()).Div(hundred).Round(2)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal tier: invalid value %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tier value: invalid value %d", int(t))
	}
	return t.String(), nil
}

func (t *Tier) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("scan tier: unsupported type %T", src)
	}
}
