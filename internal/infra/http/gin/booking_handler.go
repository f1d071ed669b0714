package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"livonto/internal/app/commands"
	"livonto/internal/app/dto"
	bookingapp "livonto/internal/app/handlers/booking"
	invoiceapp "livonto/internal/app/handlers/invoice"
	"livonto/internal/app/queries"
	"livonto/internal/domain/shared/month"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	ListingID       string `json:"listing_id"`
	RoomConfigID    string `json:"room_config_id"`
	Month           string `json:"month"`
	AgreedToTerms   bool   `json:"agreed_to_terms"`
	KycID           string `json:"kyc_id"`
	SpecialRequests string `json:"special_requests"`
	DurationMonths  int    `json:"duration_months"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "tenant")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := month.Parse(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted YYYY-MM"})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		UserID:          user.ID,
		ListingID:       req.ListingID,
		RoomConfigID:    req.RoomConfigID,
		Month:           m.FirstDay(),
		AgreedToTerms:   req.AgreedToTerms,
		KycID:           req.KycID,
		SpecialRequests: req.SpecialRequests,
		DurationMonths:  req.DurationMonths,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req cancelBookingRequest
	// cancellation reason is optional, an empty body is fine
	_ = c.ShouldBindJSON(&req)

	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		Reason:    req.Reason,
	}
	if !user.HasRole("admin") {
		cmd.UserID = user.ID
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Invoice(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := invoiceapp.GetInvoiceQuery{BookingID: c.Param("id")}
	if !user.HasRole("admin") {
		query.UserID = user.ID
	}
	result, err := queries.Ask[invoiceapp.GetInvoiceQuery, dto.Invoice](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
