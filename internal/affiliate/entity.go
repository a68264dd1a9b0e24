// AngelaMos | 2026
// entity.go

package affiliate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

type Affiliate struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	Email          string          `db:"email"`
	PasswordHash   string          `db:"password_hash"`
	Status         Status          `db:"status"`
	Tier           tier.Tier       `db:"tier"`
	TotalEarnings  decimal.Decimal `db:"total_earnings"`
	TotalClicks    int64           `db:"total_clicks"`
	TotalSales     int64           `db:"total_sales"`
	PendingBalance decimal.Decimal `db:"pending_balance"`
	PaidToDate     decimal.Decimal `db:"paid_to_date"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (a *Affiliate) IsActive() bool {
	return a.Status == StatusActive
}

// Totals are the ledger-derived aggregates cached on the affiliate row.
type Totals struct {
	TotalEarnings  decimal.Decimal `db:"total_earnings"`
	TotalSales     int64           `db:"total_sales"`
	PendingBalance decimal.Decimal `db:"pending_balance"`
}
