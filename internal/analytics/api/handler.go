package analytics_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/analytics"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/dashboard", h.GetDashboard)
	})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetDashboard", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", d)
}
