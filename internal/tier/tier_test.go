// AngelaMos | 2026
// tier_test.go

package tier

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTableOrderedByThreshold(t *testing.T) {
	defs := All()
	require.Len(t, defs, 3)

	for i := 1; i < len(defs); i++ {
		assert.True(t, defs[i].Threshold.GreaterThan(defs[i-1].Threshold))
		assert.Equal(t, Tier(i), defs[i].Tier)
	}
}

func TestRatesAndThresholds(t *testing.T) {
	cases := []struct {
		tier      Tier
		name      string
		rate      string
		threshold string
	}{
		{Starter, "Starter", "20", "0"},
		{Pro, "Pro", "25", "500"},
		{Elite, "Elite", "30", "2000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.tier.String())
			assert.True(t, tc.tier.Rate().Equal(d(tc.rate)))
			assert.True(t, tc.tier.Threshold().Equal(d(tc.threshold)))

			parsed, err := Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.tier, parsed)
		})
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("Diamond")
	require.Error(t, err)
}

func TestCommission(t *testing.T) {
	assert.Equal(t, "20", Starter.Commission(d("100")).String())
	assert.Equal(t, "25", Pro.Commission(d("100")).String())
	assert.Equal(t, "30", Elite.Commission(d("100")).String())
	assert.Equal(t, "2.47", Starter.Commission(d("12.345")).String())
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		current  Tier
		earnings string
		want     Tier
	}{
		{"starter below pro", Starter, "499.99", Starter},
		{"starter reaches pro", Starter, "500", Pro},
		{"pro below elite", Pro, "1999.99", Pro},
		{"pro reaches elite", Pro, "2000", Elite},
		// Earnings-based, not sequential: a single jump can skip Pro.
		{"starter jumps to elite", Starter, "2500", Elite},
		{"elite stays elite", Elite, "10", Elite},
		{"pro never demoted", Pro, "0", Pro},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.current, d(tc.earnings)))
		})
	}
}

func TestProgressStarter(t *testing.T) {
	p := ProgressFor(Starter, d("250"))

	assert.InDelta(t, 50.0, p.Percent, 0.0001)
	require.NotNil(t, p.NextTier)
	assert.Equal(t, Pro, *p.NextTier)
	assert.Equal(t, "Pro", p.NextTier.String())
	require.NotNil(t, p.NextThreshold)
	assert.True(t, p.NextThreshold.Equal(d("500")))
	require.NotNil(t, p.NextRate)
	assert.True(t, p.NextRate.Equal(d("25")))
	assert.True(t, p.Rate.Equal(d("20")))
}

func TestProgressPro(t *testing.T) {
	p := ProgressFor(Pro, d("1000"))

	assert.InDelta(t, 33.3, p.Percent, 0.0001)
	require.NotNil(t, p.NextTier)
	assert.Equal(t, Elite, *p.NextTier)
	assert.True(t, p.NextThreshold.Equal(d("2000")))
}

func TestProgressElite(t *testing.T) {
	p := ProgressFor(Elite, d("2000"))

	assert.InDelta(t, 100.0, p.Percent, 0.0001)
	assert.Nil(t, p.NextTier)
	assert.Nil(t, p.NextThreshold)
	assert.Nil(t, p.NextRate)
}

func TestProgressClamped(t *testing.T) {
	assert.InDelta(t, 100.0, ProgressFor(Starter, d("750")).Percent, 0.0001)
	assert.InDelta(t, 0.0, ProgressFor(Pro, d("100")).Percent, 0.0001)
}

func TestTierJSONAndSQL(t *testing.T) {
	b, err := json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{Pro})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"Pro"}`, string(b))

	var out struct {
		Tier Tier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"Elite"}`), &out))
	assert.Equal(t, Elite, out.Tier)

	v, err := Starter.Value()
	require.NoError(t, err)
	assert.Equal(t, "Starter", v)

	var scanned Tier
	require.NoError(t, scanned.Scan([]byte("Pro")))
	assert.Equal(t, Pro, scanned)
	require.Error(t, scanned.Scan(42))
}
