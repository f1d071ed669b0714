package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"livonto/internal/app/commands"
	paymentapp "livonto/internal/app/handlers/payment"
)

type PaymentHandler struct {
	Commands commands.Bus
}

type confirmPaymentRequest struct {
	BookingID         string `json:"booking_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Confirm handles the checkout callback. The signature in the body is the
// only authentication; the gateway client calls this without a session.
func (h PaymentHandler) Confirm(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := paymentapp.ConfirmPaymentCommand{
		BookingID:         req.BookingID,
		ProviderOrderID:   req.RazorpayOrderID,
		ProviderPaymentID: req.RazorpayPaymentID,
		Signature:         req.RazorpaySignature,
	}
	result, err := commands.Dispatch[paymentapp.ConfirmPaymentCommand, *paymentapp.ConfirmPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
