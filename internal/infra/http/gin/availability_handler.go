package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"livonto/internal/app/dto"
	availabilityapp "livonto/internal/app/handlers/availability"
	"livonto/internal/app/queries"
	"livonto/internal/domain/shared/month"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

// Check serves GET /listings/:id/availability?month=YYYY-MM.
func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	m, err := month.Parse(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted YYYY-MM"})
		return
	}
	includeFull := c.Query("include_full") == "true"
	if p, ok := currentPrincipal(c); ok && (p.HasRole("admin") || p.HasRole("owner")) {
		includeFull = true
	}
	query := availabilityapp.CheckAvailabilityQuery{
		ListingID:   c.Param("id"),
		Month:       m,
		IncludeFull: includeFull,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.ListingAvailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
