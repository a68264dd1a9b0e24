// AngelaMos | 2026
// dto.go

package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

type Activity struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

type Snapshot struct {
	Affiliate      *affiliate.Affiliate
	ConversionRate float64
	Progress       tier.Progress
	NextPayoutDate time.Time
	PayoutMethod   string
	RecentActivity []Activity
}

type ActivityResponse struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

type Response struct {
	AffiliateID       string             `json:"affiliate_id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Status            string             `json:"status"`
	Tier              string             `json:"tier"`
	CommissionRate    float64            `json:"commission_rate"`
	TotalEarnings     float64            `json:"total_earnings"`
	TotalClicks       int64              `json:"total_clicks"`
	TotalSales        int64              `json:"total_sales"`
	ConversionRate    float64            `json:"conversion_rate"`
	PendingBalance    float64            `json:"pending_balance"`
	PaidToDate        float64            `json:"paid_to_date"`
	TierProgress      float64            `json:"tier_progress"`
	NextTierName      *string            `json:"next_tier_name"`
	NextTierRate      *float64           `json:"next_tier_rate"`
	NextTierThreshold *float64           `json:"next_tier_threshold"`
	NextPayoutDate    string             `json:"next_payout_date"`
	PayoutMethod      string             `json:"payout_method"`
	RecentActivity    []ActivityResponse `json:"recent_activity"`
}

func ToResponse(s *Snapshot) Response {
	a := s.Affiliate
	resp := Response{
		AffiliateID:    a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Status:         string(a.Status),
		Tier:           a.Tier.String(),
		CommissionRate: s.Progress.Rate.InexactFloat64(),
		TotalEarnings:  a.TotalEarnings.InexactFloat64(),
		TotalClicks:    a.TotalClicks,
		TotalSales:     a.TotalSales,
		ConversionRate: s.ConversionRate,
		PendingBalance: a.PendingBalance.InexactFloat64(),
		PaidToDate:     a.PaidToDate.InexactFloat64(),
		TierProgress:   s.Progress.Percent,
		NextPayoutDate: s.NextPayoutDate.Format(time.DateOnly),
		PayoutMethod:   s.PayoutMethod,
		RecentActivity: make([]ActivityResponse, 0, len(s.RecentActivity)),
	}

	if s.Progress.NextTier != nil {
		name := s.Progress.NextTier.String()
		rate := s.Progress.NextRate.InexactFloat64()
		threshold := s.Progress.NextThreshold.InexactFloat64()
		resp.NextTierName = &name
		resp.NextTierRate = &rate
		resp.NextTierThreshold = &threshold
	}

	for _, act := range s.RecentActivity {
		resp.RecentActivity = append(resp.RecentActivity, ActivityResponse{
			Description: act.Description,
			Amount:      act.Amount.InexactFloat64(),
			Date:        act.Date,
		})
	}

	return resp
}
