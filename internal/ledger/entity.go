// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Click is one referral visit. Client metadata is advisory and stored as
// received.
type Click struct {
	ID          string    `db:"id"`
	AffiliateID string    `db:"affiliate_id"`
	Page        string    `db:"page"`
	Campaign    *string   `db:"campaign"`
	IPAddress   string    `db:"ip_address"`
	UserAgent   string    `db:"user_agent"`
	Referrer    string    `db:"referrer"`
	CreatedAt   time.Time `db:"created_at"`
}

// Sale is one attributed sale. CommissionRate is the percentage in force when
// the sale was recorded and is never rewritten.
type Sale struct {
	ID               string          `db:"id"`
	AffiliateID      string          `db:"affiliate_id"`
	OrderID          string          `db:"order_id"`
	SaleAmount       decimal.Decimal `db:"sale_amount"`
	CommissionRate   decimal.Decimal `db:"commission_rate"`
	CommissionAmount decimal.Decimal `db:"commission_amount"`
	ProductDetails   string          `db:"product_details"`
	CreatedAt        time.Time       `db:"created_at"`
}

// Summary is the ledger-side view of an affiliate's aggregates.
type Summary struct {
	Clicks      int64           `db:"clicks"`
	Sales       int64           `db:"sales"`
	Commissions decimal.Decimal `db:"commissions"`
}
