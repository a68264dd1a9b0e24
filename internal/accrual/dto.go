// AngelaMos | 2026
// dto.go

package accrual

import (
	"github.com/shopspring/decimal"
)

type ClickRequest struct {
	AffiliateID string  `json:"affiliate_id" validate:"required,max=16"`
	Page        string  `json:"page"         validate:"required,max=2048"`
	Campaign    *string `json:"campaign"     validate:"omitempty,max=255"`
}

type SaleRequest struct {
	AffiliateID    string          `json:"affiliate_id"    validate:"required,max=16"`
	OrderID        string          `json:"order_id"        validate:"required,max=128"`
	SaleAmount     decimal.Decimal `json:"sale_amount"`
	ProductDetails string          `json:"product_details" validate:"max=4096"`
}

type ClickResponse struct {
	TotalClicks int64 `json:"total_clicks"`
}

type SaleResponse struct {
	SaleID           string  `json:"sale_id"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	Tier             string  `json:"tier"`
	Upgraded         bool    `json:"upgraded"`
}

type SummaryResponse struct {
	Clicks      int64   `json:"clicks"`
	Sales       int64   `json:"sales"`
	Commissions float64 `json:"commissions"`
}

type ReconcileResponse struct {
	AffiliateID string          `json:"affiliate_id"`
	InSync      bool            `json:"in_sync"`
	Cached      SummaryResponse `json:"cached"`
	Ledger      SummaryResponse `json:"ledger"`
}
