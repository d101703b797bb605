package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/blob"
	"ms-storefront/internal/config"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
)

func TestRouterHealthAndReadiness(t *testing.T) {
	ready := errors.New("db down")
	r := NewRouter(config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}, nil, func(ctx context.Context) error { return ready }, logger.NewNopLogger())

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)
	ready = nil
	assert.Equal(t, http.StatusOK, get("/ready").Code)

	rec := get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestRouterCORSPreflight(t *testing.T) {
	r := NewRouter(config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}, nil, nil, logger.NewNopLogger())
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}

func TestAuthenticatorNeedsAVerifier(t *testing.T) {
	_, err := Authenticator(context.Background(), config.AuthConfig{}, testdb.New(t), nil, logger.NewNopLogger())
	assert.Error(t, err)

	a, err := Authenticator(context.Background(), config.AuthConfig{JWTSecret: "s3cret"}, testdb.New(t), nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestPublisherFallsBackToLogging(t *testing.T) {
	pub := Publisher(config.KafkaConfig{Enabled: false}, logger.NewNopLogger())
	_, ok := pub.(*kafka.LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.Publish(context.Background(), "t", "k", []byte("v")))
}

func TestTicketServiceCreatesStorageDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "storage")
	svc, err := TicketService(config.StorageConfig{Dir: dir, PublicBaseURL: "http://localhost/files"}, testdb.New(t), logger.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestFileHandlerServesFilesWithoutListings(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.NewLocalStore(dir, "http://localhost:8080/files")
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "qrcodes/LVT123.png", []byte("png"), "image/png")
	require.NoError(t, err)

	r := NewRouter(config.ServerConfig{}, nil, nil, logger.NewNopLogger())
	r.Handle("/files/*", FileHandler(dir))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/files/qrcodes/LVT123.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	for _, path := range []string{"/files/qrcodes/", "/files/qrcodes", "/files/"} {
		rec := get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "LVT123", path)
	}
	assert.Equal(t, http.StatusNotFound, get("/files/qrcodes/LVT999.png").Code)
}
