package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"itinera/internal/csvexport"
	"itinera/internal/service"
)

// TripHandler handles itinerary read and rename endpoints.
type TripHandler struct {
	trips service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips service.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// List handles GET /api/v1/trips
func (h *TripHandler) List(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	offset, limit := parsePagination(c)

	trips, total, err := h.trips.List(c.Request.Context(), ownerID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, trips, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetByID(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid trip ID")
		return
	}

	trip, err := h.trips.Get(c.Request.Context(), ownerID, tripID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, trip)
}

// Rename handles PATCH /api/v1/trips/:id
func (h *TripHandler) Rename(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid trip ID")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	trip, err := h.trips.Rename(c.Request.Context(), ownerID, tripID, req.Name)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, trip)
}

// ExportCSV handles GET /api/v1/trips/export
func (h *TripHandler) ExportCSV(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	// Buffered so a mid-export failure can still produce an error envelope.
	var buf bytes.Buffer
	if err := h.trips.Export(c.Request.Context(), ownerID, &buf); err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvexport.BuildFilename("trips")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// parsePagination extracts offset and limit from query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
