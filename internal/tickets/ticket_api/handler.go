package ticket_api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	tickets "ms-storefront/internal/tickets/service"
	"ms-storefront/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/count", h.GetTotalTicketsCount)
		r.Get("/{number}", h.ViewTicket)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", h.ListTickets)
			r.Get("/order/{orderId}", h.ListTicketsByOrder)
			r.Get("/event/{eventId}", h.ListTicketsByEvent)
			r.Post("/{number}/verify", h.VerifyTicket)
			r.Post("/{number}/cancel", h.CancelTicket)
		})
	})
}

// RegisterScannerRoutes exposes lookup and verification only, for the door
// scanner service.
func (h *Handler) RegisterScannerRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/{number}", h.ViewTicket)
		r.Post("/{number}/verify", h.VerifyTicket)
	})
}

func ticketNumber(r *http.Request) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "number")))
	if !strings.HasPrefix(n, utils.TicketNumberPrefix) {
		return "", apperr.NotFound("Ticket not found")
	}
	return n, nil
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.List(r.Context())
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ListTickets", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) ListTicketsByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "orderId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.TicketService.ByOrder(r.Context(), id)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ListTicketsByOrder", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) ListTicketsByEvent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.TicketService.ByEvent(r.Context(), id)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ListTicketsByEvent", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	number, err := ticketNumber(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	t, err := h.TicketService.ByNumber(r.Context(), number)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "ViewTicket", err)
		return
	}
	if t == nil {
		utils.WriteError(w, apperr.NotFound("Ticket not found"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", t)
}

func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	number, err := ticketNumber(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	t, err := h.TicketService.Verify(r.Context(), number)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "VerifyTicket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket verified", t)
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	number, err := ticketNumber(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	t, err := h.TicketService.Cancel(r.Context(), number)
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "CancelTicket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket cancelled", t)
}

// TicketCountResponse is the body of GET /tickets/count.
type TicketCountResponse struct {
	TotalCount int `json:"totalCount"`
}

func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.TicketService.Count(r.Context())
	if err != nil {
		utils.LogAndWriteError(w, h.Logger, "GetTotalTicketsCount", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", TicketCountResponse{TotalCount: n})
}
