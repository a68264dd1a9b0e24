// AngelaMos | 2026
// handler.go

package affiliate

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts affiliate moderation behind the given guard.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/affiliates", func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/{affiliateID}", h.GetAffiliate)
		r.Post("/{affiliateID}/approve", h.Approve)
		r.Post("/{affiliateID}/suspend", h.Suspend)
	})
}

func (h *Handler) GetAffiliate(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "affiliateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(a))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Approve(r.Context(), chi.URLParam(r, "affiliateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(a))
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Suspend(r.Context(), chi.URLParam(r, "affiliateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(a))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "affiliate")
	case errors.Is(err, ErrInvalidTransition):
		core.JSONError(w, core.ConflictError(err.Error()))
	default:
		core.InternalServerError(w, err)
	}
}
