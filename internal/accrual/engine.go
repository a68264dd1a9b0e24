// AngelaMos | 2026
// engine.go

// Package accrual turns click and sale events into ledger entries, keeps the
// cached affiliate aggregates in step with the ledger and promotes
// affiliates across tiers.
package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
	"github.com/carterperez-dev/affiliate-backend/internal/metrics"
	"github.com/carterperez-dev/affiliate-backend/internal/notify"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

var ErrInvalidAmount = errors.New("sale amount must be positive")

type Config struct {
	Clock    core.Clock
	Notifier notify.Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

type Engine struct {
	uow      UnitOfWork
	clock    core.Clock
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewEngine(uow UnitOfWork, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = core.SystemClock{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		uow:      uow,
		clock:    cfg.Clock,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

type ClickInput struct {
	AffiliateID string
	Page        string
	Campaign    *string
	IPAddress   string
	UserAgent   string
	Referrer    string
}

type SaleInput struct {
	AffiliateID    string
	OrderID        string
	SaleAmount     decimal.Decimal
	ProductDetails string
}

type SaleResult struct {
	SaleID           string
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	TotalEarnings    decimal.Decimal
	PreviousTier     tier.Tier
	Tier             tier.Tier
}

func (r *SaleResult) Upgraded() bool {
	return r.Tier != r.PreviousTier
}

// RecordClick appends a click and recounts total_clicks from the ledger.
func (e *Engine) RecordClick(ctx context.Context, in ClickInput) (int64, error) {
	ctx, span := core.StartSpan(ctx, "accrual.RecordClick",
		attribute.String("affiliate.id", in.AffiliateID),
	)
	start := time.Now()

	var total int64
	err := e.uow.Within(ctx, func(affiliates affiliate.Repository, entries ledger.Repository) error {
		exists, err := affiliates.ExistsByID(ctx, in.AffiliateID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("record click: affiliate %s: %w", in.AffiliateID, core.ErrNotFound)
		}

		err = entries.AppendClick(ctx, &ledger.Click{
			AffiliateID: in.AffiliateID,
			Page:        in.Page,
			Campaign:    in.Campaign,
			IPAddress:   in.IPAddress,
			UserAgent:   in.UserAgent,
			Referrer:    in.Referrer,
			CreatedAt:   e.clock.Now(),
		})
		if err != nil {
			return err
		}

		total, err = affiliates.RecountClicks(ctx, in.AffiliateID)
		return err
	})
	core.EndSpan(span, err)
	e.metrics.ObserveAccrual("click", time.Since(start).Seconds())

	if err != nil {
		return 0, err
	}

	e.metrics.ObserveClick()
	return total, nil
}

// RecordSale credits one sale inside a single unit of work: lock the
// affiliate, snapshot the current tier's rate, append the sale, re-derive
// aggregates and apply any tier promotion. The upgrade notification is sent
// only after the unit of work commits.
func (e *Engine) RecordSale(ctx context.Context, in SaleInput) (*SaleResult, error) {
	if !in.SaleAmount.IsPositive() {
		return nil, fmt.Errorf("record sale: %w: %w", core.ErrInvalidInput, ErrInvalidAmount)
	}

	ctx, span := core.StartSpan(ctx, "accrual.RecordSale",
		attribute.String("affiliate.id", in.AffiliateID),
		attribute.String("order.id", in.OrderID),
	)
	start := time.Now()

	var (
		result *SaleResult
		owner  *affiliate.Affiliate
	)
	err := e.uow.Within(ctx, func(affiliates affiliate.Repository, entries ledger.Repository) error {
		a, err := affiliates.GetByIDForUpdate(ctx, in.AffiliateID)
		if err != nil {
			return err
		}

		current := a.Tier
		sale := &ledger.Sale{
			AffiliateID:      a.ID,
			OrderID:          in.OrderID,
			SaleAmount:       in.SaleAmount,
			CommissionRate:   current.Rate(),
			CommissionAmount: current.Commission(in.SaleAmount),
			ProductDetails:   in.ProductDetails,
			CreatedAt:        e.clock.Now(),
		}
		if err := entries.AppendSale(ctx, sale); err != nil {
			return err
		}

		totals, err := affiliates.ApplySale(ctx, a.ID, sale.CommissionAmount)
		if err != nil {
			return err
		}

		next := tier.Evaluate(current, totals.TotalEarnings)
		if next != current {
			if err := affiliates.UpdateTier(ctx, a.ID, next); err != nil {
				return err
			}
		}

		owner = a
		result = &SaleResult{
			SaleID:           sale.ID,
			CommissionRate:   sale.CommissionRate,
			CommissionAmount: sale.CommissionAmount,
			TotalEarnings:    totals.TotalEarnings,
			PreviousTier:     current,
			Tier:             next,
		}
		return nil
	})
	core.EndSpan(span, err)
	e.metrics.ObserveAccrual("sale", time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	e.metrics.ObserveSale(result.PreviousTier.String(), result.CommissionAmount.InexactFloat64())

	if result.Upgraded() {
		e.onUpgrade(ctx, owner, result)
	}

	return result, nil
}

func (e *Engine) onUpgrade(ctx context.Context, a *affiliate.Affiliate, r *SaleResult) {
	e.logger.InfoContext(ctx, "affiliate tier upgraded",
		"affiliate_id", a.ID,
		"from", r.PreviousTier.String(),
		"to", r.Tier.String(),
		"total_earnings", r.TotalEarnings.String(),
	)
	e.metrics.ObserveTierUpgrade(r.PreviousTier.String(), r.Tier.String())
	core.AddSpanEvent(ctx, "tier.upgraded",
		attribute.String("tier.from", r.PreviousTier.String()),
		attribute.String("tier.to", r.Tier.String()),
	)

	e.notifier.Notify(ctx, notify.TierUpgrade(
		a.Name,
		a.Email,
		r.Tier.String(),
		r.Tier.Rate(),
	))
}

type Reconciliation struct {
	AffiliateID string
	Cached      ledger.Summary
	Ledger      ledger.Summary
}

func (r *Reconciliation) InSync() bool {
	return r.Cached.Clicks == r.Ledger.Clicks &&
		r.Cached.Sales == r.Ledger.Sales &&
		r.Cached.Commissions.Equal(r.Ledger.Commissions)
}

// Reconcile compares the cached aggregates on the affiliate row with a fresh
// recount of the ledger. It reads only.
func (e *Engine) Reconcile(ctx context.Context, affiliateID string) (*Reconciliation, error) {
	var rec *Reconciliation
	err := e.uow.Within(ctx, func(affiliates affiliate.Repository, entries ledger.Repository) error {
		a, err := affiliates.GetByID(ctx, affiliateID)
		if err != nil {
			return err
		}

		summary, err := entries.Summarize(ctx, affiliateID)
		if err != nil {
			return err
		}

		rec = &Reconciliation{
			AffiliateID: a.ID,
			Cached: ledger.Summary{
				Clicks:      a.TotalClicks,
				Sales:       a.TotalSales,
				Commissions: a.TotalEarnings,
			},
			Ledger: *summary,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}
