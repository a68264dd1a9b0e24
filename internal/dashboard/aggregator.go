// AngelaMos | 2026
// aggregator.go

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

const (
	DefaultRecentLimit    = 10
	defaultDescription    = "Sale completed"
	payoutDay             = 15
	payoutMethodETransfer = "e-transfer"
)

var hundred = decimal.NewFromInt(100)

type Aggregator struct {
	affiliates  affiliate.Repository
	entries     ledger.Repository
	clock       core.Clock
	recentLimit int
}

func NewAggregator(
	affiliates affiliate.Repository,
	entries ledger.Repository,
	clock core.Clock,
) *Aggregator {
	if clock == nil {
		clock = core.SystemClock{}
	}

	return &Aggregator{
		affiliates:  affiliates,
		entries:     entries,
		clock:       clock,
		recentLimit: DefaultRecentLimit,
	}
}

// Snapshot composes the affiliate's cached aggregates, tier progress, recent
// sales and the next payout date. It never writes.
func (g *Aggregator) Snapshot(ctx context.Context, affiliateID string) (*Snapshot, error) {
	a, err := g.affiliates.GetByID(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("load affiliate: %w", err)
	}

	sales, err := g.entries.RecentSales(ctx, affiliateID, g.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent sales: %w", err)
	}

	activity := make([]Activity, 0, len(sales))
	for _, s := range sales {
		desc := s.ProductDetails
		if desc == "" {
			desc = defaultDescription
		}
		activity = append(activity, Activity{
			Description: desc,
			Amount:      s.CommissionAmount,
			Date:        s.CreatedAt,
		})
	}

	return &Snapshot{
		Affiliate:      a,
		ConversionRate: ConversionRate(a.TotalClicks, a.TotalSales),
		Progress:       tier.ProgressFor(a.Tier, a.TotalEarnings),
		NextPayoutDate: NextPayoutDate(g.clock.Now()),
		PayoutMethod:   payoutMethodETransfer,
		RecentActivity: activity,
	}, nil
}

// ConversionRate is sales per hundred clicks, rounded to two decimals, and
// zero when there are no clicks.
func ConversionRate(clicks, sales int64) float64 {
	if clicks <= 0 {
		return 0
	}

	rate := decimal.NewFromInt(sales).
		Div(decimal.NewFromInt(clicks)).
		Mul(hundred).
		Round(2)
	return rate.InexactFloat64()
}

// NextPayoutDate is the 15th of the month after now, in now's location.
func NextPayoutDate(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, payoutDay, 0, 0, 0, 0, now.Location())
}
