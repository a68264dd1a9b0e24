// AngelaMos | 2026
// repository.go

package affiliate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrIDTaken    = errors.New("affiliate id already taken")
)

const (
	emailConstraint   = "affiliates_email_key"
	primaryConstraint = "affiliates_pkey"
)

type Repository interface {
	Create(ctx context.Context, a *Affiliate) error
	GetByID(ctx context.Context, id string) (*Affiliate, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Affiliate, error)
	GetByEmail(ctx context.Context, email string) (*Affiliate, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateTier(ctx context.Context, id string, t tier.Tier) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecountClicks(ctx context.Context, id string) (int64, error)
	ApplySale(
		ctx context.Context,
		id string,
		commission decimal.Decimal,
	) (*Totals, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectColumns = `
	id, name, email, password_hash, status, tier,
	total_earnings, total_clicks, total_sales,
	pending_balance, paid_to_date, created_at, updated_at`

func (r *repository) Create(ctx context.Context, a *Affiliate) error {
	query := `
		INSERT INTO affiliates (id, name, email, password_hash, status, tier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.Name,
		a.Email,
		a.PasswordHash,
		a.Status,
		a.Tier,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if constraint, ok := core.UniqueViolation(err); ok {
			switch constraint {
			case emailConstraint:
				return fmt.Errorf("create affiliate: %w: %w", core.ErrDuplicateKey, ErrEmailTaken)
			case primaryConstraint:
				return fmt.Errorf("create affiliate: %w: %w", core.ErrDuplicateKey, ErrIDTaken)
			}
			return fmt.Errorf("create affiliate: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create affiliate: %w: %w", core.ErrPersistence, err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Affiliate, error) {
	query := `SELECT` + selectColumns + `
		FROM affiliates
		WHERE id = $1`

	return r.getOne(ctx, "get affiliate", query, id)
}

// GetByIDForUpdate locks the affiliate row until the surrounding transaction
// ends. Concurrent sales for one affiliate serialize here.
func (r *repository) GetByIDForUpdate(
	ctx context.Context,
	id string,
) (*Affiliate, error) {
	query := `SELECT` + selectColumns + `
		FROM affiliates
		WHERE id = $1
		FOR UPDATE`

	return r.getOne(ctx, "lock affiliate", query, id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Affiliate, error) {
	query := `SELECT` + selectColumns + `
		FROM affiliates
		WHERE email = $1`

	return r.getOne(ctx, "get affiliate by email", query, email)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	arg any,
) (*Affiliate, error) {
	var a Affiliate
	err := r.db.GetContext(ctx, &a, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, core.ErrPersistence, err)
	}

	return &a, nil
}

func (r *repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM affiliates WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check affiliate id: %w: %w", core.ErrPersistence, err)
	}

	return exists, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
) error {
	query := `
		UPDATE affiliates
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update affiliate status", query, id, status)
}

func (r *repository) UpdateTier(ctx context.Context, id string, t tier.Tier) error {
	query := `
		UPDATE affiliates
		SET tier = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update affiliate tier", query, id, t)
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE affiliates
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, core.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, core.ErrPersistence, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// RecountClicks rebuilds total_clicks from the click ledger rather than
// incrementing, so backfills and concurrent appends converge.
func (r *repository) RecountClicks(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE affiliates
		SET total_clicks = (
			SELECT COUNT(*) FROM affiliate_clicks WHERE affiliate_id = $1
		), updated_at = NOW()
		WHERE id = $1
		RETURNING total_clicks`

	var total int64
	err := r.db.GetContext(ctx, &total, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("recount clicks: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("recount clicks: %w: %w", core.ErrPersistence, err)
	}

	return total, nil
}

// ApplySale re-derives total_earnings and total_sales from the sale ledger and
// adds commission to pending_balance. pending_balance is incremental because
// payouts decrement it independently of the ledger.
func (r *repository) ApplySale(
	ctx context.Context,
	id string,
	commission decimal.Decimal,
) (*Totals, error) {
	query := `
		UPDATE affiliates
		SET total_earnings = (
				SELECT COALESCE(SUM(commission_amount), 0)
				FROM affiliate_sales WHERE affiliate_id = $1
			),
			total_sales = (
				SELECT COUNT(*) FROM affiliate_sales WHERE affiliate_id = $1
			),
			pending_balance = pending_balance + $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING total_earnings, total_sales, pending_balance`

	var totals Totals
	err := r.db.GetContext(ctx, &totals, query, id, commission)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("apply sale: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("apply sale: %w: %w", core.ErrPersistence, err)
	}

	return &totals, nil
}
