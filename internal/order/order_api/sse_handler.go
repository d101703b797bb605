package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/utils"
)

// SSEHandler streams newly placed orders to the admin dashboard.
type SSEHandler struct {
	Feed   *sse.OrderFeed
	Logger *logger.Logger
}

func NewSSEHandler(feed *sse.OrderFeed, log *logger.Logger) *SSEHandler {
	return &SSEHandler{Feed: feed, Logger: log}
}

// Stream sends every new order, or only orders for ?eventId= when given.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var eventID *int64
	if raw := r.URL.Query().Get("eventId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			utils.WriteError(w, apperr.Validation("Invalid eventId"))
			return
		}
		eventID = &id
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, apperr.Wrap(apperr.KindInternal, "streaming unsupported", nil))
		return
	}

	// the stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	setupSSEHeaders(w)
	ctx := r.Context()
	orders := h.Feed.Subscribe(ctx, eventID)

	scope := "all"
	if eventID != nil {
		scope = strconv.FormatInt(*eventID, 10)
	}
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"scope\":%q}\n\n", scope)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Admin connected to order stream (%s)", scope))

	for {
		select {
		case entry, ok := <-orders:
			if !ok {
				return
			}
			data, err := json.Marshal(entry)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order %s: %v", entry.Order.OrderNumber, err))
				continue
			}
			fmt.Fprintf(w, "event: order\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Admin disconnected from order stream (%s)", scope))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
