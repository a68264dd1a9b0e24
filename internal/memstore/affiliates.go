// AngelaMos | 2026
// affiliates.go

package memstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

type affiliateRepo struct {
	s  *Store
	tx bool
}

func (r *affiliateRepo) Create(_ context.Context, a *affiliate.Affiliate) error {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("Create"); err != nil {
		return err
	}

	if _, ok := r.s.data.affiliates[a.ID]; ok {
		return fmt.Errorf("create affiliate: %w: %w", core.ErrDuplicateKey, affiliate.ErrIDTaken)
	}
	for _, existing := range r.s.data.affiliates {
		if existing.Email == a.Email {
			return fmt.Errorf("create affiliate: %w: %w", core.ErrDuplicateKey, affiliate.ErrEmailTaken)
		}
	}

	now := r.s.clock.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.data.affiliates[a.ID] = *a
	return nil
}

func (r *affiliateRepo) get(op, id string) (*affiliate.Affiliate, error) {
	if err := r.s.fail(op); err != nil {
		return nil, err
	}

	a, ok := r.s.data.affiliates[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return &a, nil
}

func (r *affiliateRepo) GetByID(_ context.Context, id string) (*affiliate.Affiliate, error) {
	defer r.s.lock(r.tx)()
	return r.get("GetByID", id)
}

func (r *affiliateRepo) GetByIDForUpdate(
	_ context.Context,
	id string,
) (*affiliate.Affiliate, error) {
	defer r.s.lock(r.tx)()
	return r.get("GetByIDForUpdate", id)
}

func (r *affiliateRepo) GetByEmail(
	_ context.Context,
	email string,
) (*affiliate.Affiliate, error) {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("GetByEmail"); err != nil {
		return nil, err
	}

	for _, a := range r.s.data.affiliates {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("get affiliate by email: %w", core.ErrNotFound)
}

func (r *affiliateRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	defer r.s.lock(r.tx)()

	if err := r.s.fail("ExistsByID"); err != nil {
		return false, err
	}

	_, ok := r.s.data.affiliates[id]
	return ok, nil
}

func (r *affiliateRepo) update(op, id string, fn func(a *affiliate.Affiliate)) error {
	a, err := r.get(op, id)
	if err != nil {
		return err
	}

	fn(a)
	a.UpdatedAt = r.s.clock.Now()
	r.s.data.affiliates[id] = *a
	return nil
}

func (r *affiliateRepo) UpdateStatus(
	_ context.Context,
	id string,
	status affiliate.Status,
) error {
	defer r.s.lock(r.tx)()
	return r.update("UpdateStatus", id, func(a *affiliate.Affiliate) {
		a.Status = status
	})
}

func (r *affiliateRepo) UpdateTier(_ context.Context, id string, t tier.Tier) error {
	defer r.s.lock(r.tx)()
	return r.update("UpdateTier", id, func(a *affiliate.Affiliate) {
		a.Tier = t
	})
}

func (r *affiliateRepo) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	defer r.s.lock(r.tx)()
	return r.update("UpdatePassword", id, func(a *affiliate.Affiliate) {
		a.PasswordHash = passwordHash
	})
}

func (r *affiliateRepo) RecountClicks(_ context.Context, id string) (int64, error) {
	defer r.s.lock(r.tx)()

	var total int64
	for _, c := range r.s.data.clicks {
		if c.AffiliateID == id {
			total++
		}
	}

	err := r.update("RecountClicks", id, func(a *affiliate.Affiliate) {
		a.TotalClicks = total
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *affiliateRepo) ApplySale(
	_ context.Context,
	id string,
	commission decimal.Decimal,
) (*affiliate.Totals, error) {
	defer r.s.lock(r.tx)()

	earnings := decimal.Zero
	var count int64
	for _, sale := range r.s.data.sales {
		if sale.AffiliateID == id {
			earnings = earnings.Add(sale.CommissionAmount)
			count++
		}
	}

	var totals affiliate.Totals
	err := r.update("ApplySale", id, func(a *affiliate.Affiliate) {
		a.TotalEarnings = earnings
		a.TotalSales = count
		a.PendingBalance = a.PendingBalance.Add(commission)
		totals = affiliate.Totals{
			TotalEarnings:  a.TotalEarnings,
			TotalSales:     a.TotalSales,
			PendingBalance: a.PendingBalance,
		}
	})
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
