package order_api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/order"
	"ms-storefront/internal/utils"
)

const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	OrderService *order.OrderService
	SSE          *SSEHandler
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, sse *SSEHandler, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, SSE: sse, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/number/{number}", h.GetOrderByNumber)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Get("/mine", h.MyOrders)
			r.Get("/{id}", h.GetOrder)
			r.Get("/{id}/items", h.GetOrderItems)
			r.Get("/{id}/tickets", h.GetOrderTickets)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", h.ListOrders)
			r.Patch("/{id}/status", h.UpdateStatus)
			if h.SSE != nil {
				r.Get("/stream", h.SSE.Stream)
			}
		})
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	res, err := h.OrderService.CreateOrder(r.Context(), req, auth.UserID(r.Context()), r.Header.Get(IdempotencyHeader))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "CreateOrder", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Order placed", res)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.OrderService.List(r.Context())
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ListOrders", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	list, err := h.OrderService.MyOrders(r.Context(), user.ID)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "MyOrders", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.OrderService.Get(r.Context(), id, auth.UserFromContext(r.Context()))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetOrder", err)
		return
	}
	if o == nil {
		utils.WriteError(w, apperr.NotFound("Order not found"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetOrderByNumber", err)
		return
	}
	if o == nil {
		utils.WriteError(w, apperr.NotFound("Order not found"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

func (h *Handler) GetOrderItems(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	items, err := h.OrderService.Items(r.Context(), id, auth.UserFromContext(r.Context()))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetOrderItems", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) GetOrderTickets(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.OrderService.Tickets(r.Context(), id, auth.UserFromContext(r.Context()))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetOrderTickets", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Wrap(apperr.KindValidation, "Invalid request body", err))
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.OrderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateStatus", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order status updated", o)
}
