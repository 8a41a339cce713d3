package handler_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/handler"
	"itinera/mocks"
)

func TestTripHandler_List(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)
	ownerID := uuid.New()

	trips := []domain.StoredTrip{{ID: uuid.New(), OwnerID: ownerID, Name: "London Trip"}}
	svc.On("List", mock.Anything, ownerID, 20, 20).Return(trips, 21, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips?offset=20&limit=500", http.NoBody)
	setOwnerContext(c, ownerID)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 21, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestTripHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)
	ownerID, tripID := uuid.New(), uuid.New()

	svc.On("Get", mock.Anything, ownerID, tripID).Return(&domain.TripWithBookings{
		StoredTrip: domain.StoredTrip{ID: tripID, Name: "Rome Trip"},
		Bookings:   []domain.BookingRecord{},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips/"+tripID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: tripID.String()}}
	setOwnerContext(c, ownerID)

	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rome Trip")
	svc.AssertExpectations(t)
}

func TestTripHandler_GetByID_Errors(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		h := handler.NewTripHandler(new(mocks.MockTripService))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips/nope", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: "nope"}}
		setOwnerContext(c, uuid.New())

		h.GetByID(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mocks.MockTripService)
		h := handler.NewTripHandler(svc)
		svc.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrTripNotFound)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		tripID := uuid.New().String()
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips/"+tripID, http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: tripID}}
		setOwnerContext(c, uuid.New())

		h.GetByID(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "TRIP_NOT_FOUND", decode(t, w).Error.Code)
	})
}

func TestTripHandler_Rename(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)
	ownerID, tripID := uuid.New(), uuid.New()

	svc.On("Rename", mock.Anything, ownerID, tripID, "Honeymoon").Return(&domain.StoredTrip{
		ID: tripID, Name: "Honeymoon", NameSource: domain.TripNameUser,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/api/v1/trips/"+tripID.String(),
		strings.NewReader(`{"name":"Honeymoon"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: tripID.String()}}
	setOwnerContext(c, ownerID)

	h.Rename(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name_source":"user"`)
	svc.AssertExpectations(t)
}

func TestTripHandler_Rename_InvalidName(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)
	tripID := uuid.New()

	svc.On("Rename", mock.Anything, mock.Anything, tripID, "   ").Return(nil, domain.ErrInvalidTripName)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/api/v1/trips/"+tripID.String(),
		strings.NewReader(`{"name":"   "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: tripID.String()}}
	setOwnerContext(c, uuid.New())

	h.Rename(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRIP_NAME", decode(t, w).Error.Code)
}

func TestTripHandler_ExportCSV(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)
	ownerID := uuid.New()

	svc.On("Export", mock.Anything, ownerID, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = args.Get(2).(io.Writer).Write([]byte("Trip Name\nLondon Trip\n"))
		}).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips/export", http.NoBody)
	setOwnerContext(c, ownerID)

	h.ExportCSV(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "trips_"+time.Now().Format("2006-01-02")+".csv")
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("London Trip")))
}

func TestTripHandler_ExportCSV_Error(t *testing.T) {
	svc := new(mocks.MockTripService)
	h := handler.NewTripHandler(svc)

	svc.On("Export", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/trips/export", http.NoBody)
	setOwnerContext(c, uuid.New())

	h.ExportCSV(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
