package cart_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/cart"
	"ms-storefront/internal/cart/db"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"
)

// SessionHeader carries the guest cart id when no sessionId query parameter
// is given.
const SessionHeader = "X-Session-Id"

type Handler struct {
	Cart   *cart.Service
	Logger *logger.Logger
}

func NewHandler(svc *cart.Service, log *logger.Logger) *Handler {
	return &Handler{Cart: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/", h.Add)
		r.Delete("/", h.Clear)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Remove)
	})
}

// owner prefers the signed-in user over any session id.
func owner(r *http.Request, bodySession string) db.Owner {
	if id := auth.UserID(r.Context()); id != nil {
		return db.Owner{UserID: id}
	}
	session := r.URL.Query().Get("sessionId")
	if session == "" {
		session = bodySession
	}
	if session == "" {
		session = r.Header.Get(SessionHeader)
	}
	return db.Owner{SessionID: session}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.Cart.Get(r.Context(), owner(r, ""))
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetCart", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var in cart.AddInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.LogAndWriteError(w, h.Logger, "AddToCart", err)
		return
	}
	item, err := h.Cart.Add(r.Context(), owner(r, in.SessionID), in)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "AddToCart", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Added to cart", item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateCartItem", err)
		return
	}
	var body struct {
		Quantity  int    `json:"quantity"`
		SessionID string `json:"sessionId"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateCartItem", err)
		return
	}
	if err := h.Cart.UpdateQuantity(r.Context(), owner(r, body.SessionID), id, body.Quantity); err != nil {
		utils.LogAndWriteError(w, h.Logger, "UpdateCartItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart updated", nil)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "RemoveCartItem", err)
		return
	}
	if err := h.Cart.Remove(r.Context(), owner(r, ""), id); err != nil {
		utils.LogAndWriteError(w, h.Logger, "RemoveCartItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Removed from cart", nil)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Clear(r.Context(), owner(r, "")); err != nil {
		utils.LogAndWriteError(w, h.Logger, "ClearCart", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart cleared", nil)
}
