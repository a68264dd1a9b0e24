// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

var ErrDuplicateOrder = errors.New("order already recorded for affiliate")

const orderConstraint = "affiliate_sales_order_key"

// Repository is append-only. Events are never updated or deleted.
type Repository interface {
	AppendClick(ctx context.Context, c *Click) error
	AppendSale(ctx context.Context, s *Sale) error
	RecentSales(ctx context.Context, affiliateID string, limit int) ([]Sale, error)
	Summarize(ctx context.Context, affiliateID string) (*Summary, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) AppendClick(ctx context.Context, c *Click) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO affiliate_clicks (
			id, affiliate_id, page, campaign,
			ip_address, user_agent, referrer, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.AffiliateID,
		c.Page,
		c.Campaign,
		c.IPAddress,
		c.UserAgent,
		c.Referrer,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append click: %w: %w", core.ErrPersistence, err)
	}

	return nil
}

func (r *repository) AppendSale(ctx context.Context, s *Sale) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO affiliate_sales (
			id, affiliate_id, order_id, sale_amount,
			commission_rate, commission_amount, product_details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.AffiliateID,
		s.OrderID,
		s.SaleAmount,
		s.CommissionRate,
		s.CommissionAmount,
		s.ProductDetails,
		s.CreatedAt,
	)
	if err != nil {
		if constraint, ok := core.UniqueViolation(err); ok && constraint == orderConstraint {
			return fmt.Errorf("append sale: %w: %w", core.ErrDuplicateKey, ErrDuplicateOrder)
		}
		return fmt.Errorf("append sale: %w: %w", core.ErrPersistence, err)
	}

	return nil
}

func (r *repository) RecentSales(
	ctx context.Context,
	affiliateID string,
	limit int,
) ([]Sale, error) {
	query := `
		SELECT id, affiliate_id, order_id, sale_amount, commission_rate,
		       commission_amount, product_details, created_at
		FROM affiliate_sales
		WHERE affiliate_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var sales []Sale
	if err := r.db.SelectContext(ctx, &sales, query, affiliateID, limit); err != nil {
		return nil, fmt.Errorf("list recent sales: %w: %w", core.ErrPersistence, err)
	}

	return sales, nil
}

// Summarize recomputes click count, sale count and commission sum straight
// from the ledger tables.
func (r *repository) Summarize(
	ctx context.Context,
	affiliateID string,
) (*Summary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM affiliate_clicks WHERE affiliate_id = $1) AS clicks,
			(SELECT COUNT(*) FROM affiliate_sales WHERE affiliate_id = $1) AS sales,
			(SELECT COALESCE(SUM(commission_amount), 0)
			 FROM affiliate_sales WHERE affiliate_id = $1) AS commissions`

	var s Summary
	if err := r.db.GetContext(ctx, &s, query, affiliateID); err != nil {
		return nil, fmt.Errorf("summarize ledger: %w: %w", core.ErrPersistence, err)
	}

	return &s, nil
}
