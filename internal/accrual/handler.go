// AngelaMos | 2026
// handler.go

package accrual

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
)

type Handler struct {
	engine    *Engine
	validator *validator.Validate
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{
		engine:    engine,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts click tracking (public, rate limited by the caller)
// and sale ingestion (guarded by ingestOnly).
func (h *Handler) RegisterRoutes(
	r chi.Router,
	clickLimiter, ingestOnly func(http.Handler) http.Handler,
) {
	r.Route("/track", func(r chi.Router) {
		r.With(clickLimiter).Post("/click", h.TrackClick)
		r.With(ingestOnly).Post("/sale", h.TrackSale)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.With(adminOnly).Get("/admin/affiliates/{affiliateID}/reconcile", h.Reconcile)
}

func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	total, err := h.engine.RecordClick(r.Context(), ClickInput{
		AffiliateID: req.AffiliateID,
		Page:        req.Page,
		Campaign:    req.Campaign,
		IPAddress:   middleware.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Referrer:    r.Referer(),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.Accepted(w, ClickResponse{TotalClicks: total})
}

func (h *Handler) TrackSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.engine.RecordSale(r.Context(), SaleInput{
		AffiliateID:    req.AffiliateID,
		OrderID:        req.OrderID,
		SaleAmount:     req.SaleAmount,
		ProductDetails: req.ProductDetails,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, SaleResponse{
		SaleID:           result.SaleID,
		CommissionRate:   result.CommissionRate.InexactFloat64(),
		CommissionAmount: result.CommissionAmount.InexactFloat64(),
		Tier:             result.Tier.String(),
		Upgraded:         result.Upgraded(),
	})
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.Reconcile(r.Context(), chi.URLParam(r, "affiliateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ReconcileResponse{
		AffiliateID: rec.AffiliateID,
		InSync:      rec.InSync(),
		Cached:      toSummaryResponse(rec.Cached),
		Ledger:      toSummaryResponse(rec.Ledger),
	})
}

func toSummaryResponse(s ledger.Summary) SummaryResponse {
	return SummaryResponse{
		Clicks:      s.Clicks,
		Sales:       s.Sales,
		Commissions: s.Commissions.InexactFloat64(),
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "affiliate")
	case errors.Is(err, ErrInvalidAmount):
		core.BadRequest(w, "sale_amount must be positive")
	case errors.Is(err, ledger.ErrDuplicateOrder):
		core.JSONError(w, core.NewAppError(
			err,
			"order already recorded",
			http.StatusConflict,
			"DUPLICATE_ORDER",
		))
	default:
		core.InternalServerError(w, err)
	}
}
