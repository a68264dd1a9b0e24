// AngelaMos | 2026
// dto.go

package affiliate

import (
	"time"
)

type ProfileResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	Tier           string    `json:"tier"`
	CommissionRate float64   `json:"commission_rate"`
	TotalEarnings  float64   `json:"total_earnings"`
	TotalClicks    int64     `json:"total_clicks"`
	TotalSales     int64     `json:"total_sales"`
	PendingBalance float64   `json:"pending_balance"`
	PaidToDate     float64   `json:"paid_to_date"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToProfileResponse(a *Affiliate) ProfileResponse {
	return ProfileResponse{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Status:         string(a.Status),
		Tier:           a.Tier.String(),
		CommissionRate: a.Tier.Rate().InexactFloat64(),
		TotalEarnings:  a.TotalEarnings.InexactFloat64(),
		TotalClicks:    a.TotalClicks,
		TotalSales:     a.TotalSales,
		PendingBalance: a.PendingBalance.InexactFloat64(),
		PaidToDate:     a.PaidToDate.InexactFloat64(),
		CreatedAt:      a.CreatedAt,
	}
}
