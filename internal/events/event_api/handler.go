package event_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/events"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"
)

type Handler struct {
	Events *events.Service
	Logger *logger.Logger
}

func NewHandler(svc *events.Service, log *logger.Logger) *Handler {
	return &Handler{Events: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/slug/{slug}", h.GetBySlug)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.List(r.Context(), utils.BoolQuery(r, "activeOnly", true))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ListEvents", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.Featured(r.Context())
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "FeaturedEvents", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetEvent", err)
		return
	}
	e, err := h.Events.Get(r.Context(), id)
	if err == nil && e == nil {
		err = apperr.NotFound("Event not found")
	}
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetEvent", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", e)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	e, err := h.Events.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err == nil && e == nil {
		err = apperr.NotFound("Event not found")
	}
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetEventBySlug", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", e)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in events.EventInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.LogAndWriteError(w, h.Logger, "CreateEvent", err)
		return
	}
	e, err := h.Events.Create(r.Context(), in)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "CreateEvent", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Event created", e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateEvent", err)
		return
	}
	var patch events.EventPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateEvent", err)
		return
	}
	if err := h.Events.Update(r.Context(), id, patch); err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateEvent", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event updated", nil)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "DeleteEvent", err)
		return
	}
	if err := h.Events.Delete(r.Context(), id); err != nil {
		utils.LogAndWriteError(w, h.Logger, "DeleteEvent", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event deleted", nil)
}
