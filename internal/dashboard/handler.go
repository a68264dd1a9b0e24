// AngelaMos | 2026
// handler.go

package dashboard

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
)

type Handler struct {
	aggregator *Aggregator
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, tierLimiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(tierLimiter)
		r.Get("/dashboard", h.GetDashboard)
	})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	affiliateID := middleware.GetAffiliateID(r.Context())
	if affiliateID == "" {
		core.Unauthorized(w, "")
		return
	}

	snap, err := h.aggregator.Snapshot(r.Context(), affiliateID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "affiliate")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResponse(snap))
}
