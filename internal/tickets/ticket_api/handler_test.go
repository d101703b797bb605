package ticket_api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/auth/authtest"
	"ms-storefront/internal/blob"
	"ms-storefront/internal/clock"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/tickets/db"
	"ms-storefront/internal/tickets/qr"
	tickets "ms-storefront/internal/tickets/service"
)

func TestTicketRoutes(t *testing.T) {
	bunDB := testdb.New(t)
	authn, tokens := authtest.New(t, bunDB)
	store, err := blob.NewLocalStore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)
	svc := tickets.NewTicketService(&db.DB{Bun: bunDB}, qr.NewGenerator(), store, clock.NewSystem(), logger.NewNopLogger())

	issued, err := svc.Issue(context.Background(), bunDB, tickets.IssueRequest{
		OrderID: 3, OrderNumber: "LV3", EventID: 1, EventName: "Runway Night",
		CustomerName: "Ada", CustomerEmail: "ada@example.com", Quantity: 1, TotalPrice: 2500,
	})
	require.NoError(t, err)
	number := issued[0].TicketNumber

	r := chi.NewRouter()
	r.Use(authn.Optional)
	r.Route("/api", NewHandler(svc, logger.NewNopLogger()).RegisterRoutes)

	do := func(method, path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/tickets/"+number, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"valid"`)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/tickets/LVT404", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/tickets/nope", "").Code)

	rec = do(http.MethodGet, "/api/tickets/count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalCount":1`)

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/tickets", "").Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, "/api/tickets/"+number+"/verify", tokens.Bearer("shopper")).Code)

	rec = do(http.MethodPost, "/api/tickets/"+number+"/verify", tokens.Admin())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"used"`)

	rec = do(http.MethodPost, "/api/tickets/"+number+"/verify", tokens.Admin())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ticket already used")

	rec = do(http.MethodGet, "/api/tickets/order/3", tokens.Admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), number)
}
