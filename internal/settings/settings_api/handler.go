package settings_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/settings"
	"ms-storefront/internal/utils"
)

type Handler struct {
	Settings *settings.Service
	Logger   *logger.Logger
}

func NewHandler(svc *settings.Service, log *logger.Logger) *Handler {
	return &Handler{Settings: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/whatsapp", h.WhatsApp)
		r.Get("/contact", h.Contact)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", h.List)
			r.Put("/", h.Upsert)
			r.Get("/{key}", h.Get)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Settings.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSettings: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s, err := h.Settings.Get(r.Context(), key)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSetting %s: %v", key, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", s)
}

type upsertRequest struct {
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Settings.Upsert(r.Context(), req.Key, req.Value, req.Description); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpsertSetting %s: %v", req.Key, err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("SETTINGS", fmt.Sprintf("Setting %s updated", req.Key))
	utils.WriteSuccess(w, http.StatusOK, "Setting saved", map[string]bool{"success": true})
}

func (h *Handler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "", map[string]string{
		"number": h.Settings.WhatsAppNumber(r.Context()),
	})
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "", h.Settings.Contact(r.Context()))
}
