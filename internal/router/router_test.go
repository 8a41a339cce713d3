package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/handler"
	"itinera/internal/middleware"
	"itinera/internal/router"
	"itinera/mocks"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newEngine(ingest *mocks.MockIngestionService, trips *mocks.MockTripService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return router.Setup(
		router.Config{AllowedOrigins: []string{"http://localhost:3000"}, WebhookSecret: "hook"},
		middleware.NewTokenVerifier("secret", "itinera"),
		handler.NewIngestHandler(ingest, 1<<20),
		handler.NewTripHandler(trips),
		handler.NewHealthHandler(okPinger{}),
	)
}

func bearer(t *testing.T, ownerID uuid.UUID) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		Issuer:    "itinera",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_Health(t *testing.T) {
	r := newEngine(new(mocks.MockIngestionService), new(mocks.MockTripService))

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_TripsRequireToken(t *testing.T) {
	r := newEngine(new(mocks.MockIngestionService), new(mocks.MockTripService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/trips", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_TripsScopedToTokenOwner(t *testing.T) {
	trips := new(mocks.MockTripService)
	r := newEngine(new(mocks.MockIngestionService), trips)
	ownerID := uuid.New()

	trips.On("List", mock.Anything, ownerID, 0, 20).Return([]domain.StoredTrip{}, 0, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/trips", http.NoBody)
	req.Header.Set("Authorization", bearer(t, ownerID))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	trips.AssertExpectations(t)
}

func TestRouter_ExportRouteNotShadowedByID(t *testing.T) {
	trips := new(mocks.MockTripService)
	r := newEngine(new(mocks.MockIngestionService), trips)
	ownerID := uuid.New()

	trips.On("Export", mock.Anything, ownerID, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/trips/export", http.NoBody)
	req.Header.Set("Authorization", bearer(t, ownerID))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	trips.AssertExpectations(t)
}

func TestRouter_EmailWebhookNeedsSecret(t *testing.T) {
	ingest := new(mocks.MockIngestionService)
	r := newEngine(ingest, new(mocks.MockTripService))
	body := `{"owner_id":"` + uuid.New().String() + `","text":"Flight ABC123"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/ingest/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ingest.On("Ingest", mock.Anything, mock.Anything).Return(&domain.IngestionResult{Success: true}, nil)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/ingest/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.WebhookSecretHeader, "hook")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	ingest.AssertExpectations(t)
}
