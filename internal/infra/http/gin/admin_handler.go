package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"livonto/internal/app/commands"
	bookingapp "livonto/internal/app/handlers/booking"
)

type AdminHandler struct {
	Commands commands.Bus
}

type sweepRequest struct {
	AsOf string `json:"as_of"`
}

// Sweep triggers the booking completion pass. The optional as_of override
// exists for backfills; normal runs use the current time.
func (h AdminHandler) Sweep(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req sweepRequest
	_ = c.ShouldBindJSON(&req)

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be RFC 3339"})
			return
		}
		asOf = parsed.UTC()
	}
	cmd := bookingapp.CompletionSweepCommand{AsOf: asOf}
	result, err := commands.Dispatch[bookingapp.CompletionSweepCommand, *bookingapp.CompletionSweepResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
