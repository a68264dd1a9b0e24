// AngelaMos | 2026
// ledger.go

package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
)

type ledgerRepo struct {
	s  *Store
	tx bool
}

func (r *ledgerRepo) AppendClick(_ context.Context, c *ledger.Click) error {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("AppendClick"); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.s.data.clicks = append(r.s.data.clicks, *c)
	return nil
}

func (r *ledgerRepo) AppendSale(_ context.Context, sale *ledger.Sale) error {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("AppendSale"); err != nil {
		return err
	}

	if !sale.SaleAmount.IsPositive() {
		return fmt.Errorf("append sale: %w: amount check violated", core.ErrPersistence)
	}

	for _, existing := range r.s.data.sales {
		if existing.AffiliateID == sale.AffiliateID && existing.OrderID == sale.OrderID {
			return fmt.Errorf("append sale: %w: %w", core.ErrDuplicateKey, ledger.ErrDuplicateOrder)
		}
	}

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	r.s.data.sales = append(r.s.data.sales, *sale)
	return nil
}

func (r *ledgerRepo) RecentSales(
	_ context.Context,
	affiliateID string,
	limit int,
) ([]ledger.Sale, error) {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("RecentSales"); err != nil {
		return nil, err
	}

	var out []ledger.Sale
	for i := len(r.s.data.sales) - 1; i >= 0; i-- {
		if r.s.data.sales[i].AffiliateID == affiliateID {
			out = append(out, r.s.data.sales[i])
		}
	}

	slices.SortStableFunc(out, func(a, b ledger.Sale) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ledgerRepo) Summarize(
	_ context.Context,
	affiliateID string,
) (*ledger.Summary, error) {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("Summarize"); err != nil {
		return nil, err
	}

	sum := ledger.Summary{Commissions: decimal.Zero}
	for _, c := range r.s.data.clicks {
		if c.AffiliateID == affiliateID {
			sum.Clicks++
		}
	}
	for _, sale := range r.s.data.sales {
		if sale.AffiliateID == affiliateID {
			sum.Sales++
			sum.Commissions = sum.Commissions.Add(sale.CommissionAmount)
		}
	}
	return &sum, nil
}
