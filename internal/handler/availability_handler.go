package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/staynest/service-booking/internal/availability"
	"github.com/staynest/service-booking/internal/response"
)

// AvailabilityHandler serves the public blocked-dates calendar.
type AvailabilityHandler struct {
	store *availability.Store
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(store *availability.Store) *AvailabilityHandler {
	return &AvailabilityHandler{store: store}
}

// RegisterRoutes registers the availability route. No auth, the calendar is
// visible to anyone browsing a listing.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties/:id/availability", h.BlockedDates)
}

// BlockedDates handles GET /api/v1/properties/:id/availability.
func (h *AvailabilityHandler) BlockedDates(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid property id")
		return
	}

	dates, err := h.store.BlockedDatesForDisplay(c.Request.Context(), propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(time.DateOnly))
	}
	response.Success(c, gin.H{"property_id": propertyID, "blocked_dates": out})
}
