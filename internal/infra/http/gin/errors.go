package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "livonto/internal/app/handlers/booking"
	invoiceapp "livonto/internal/app/handlers/invoice"
	listingapp "livonto/internal/app/handlers/listings"
	paymentapp "livonto/internal/app/handlers/payment"
	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/month"
)

// respondError translates domain and application failures into HTTP codes.
// Unknown errors surface as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var capErr domainbooking.CapacityError
	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainrooms.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound),
		errors.Is(err, domainkyc.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &capErr), errors.Is(err, domainrooms.ErrNoCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": "no beds available for the requested month"})
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrMonthNotElapsed),
		errors.Is(err, domainrooms.ErrHasBookings),
		errors.Is(err, domainpayment.ErrAlreadyConfirmed),
		errors.Is(err, domainpayment.ErrAmountMismatch),
		errors.Is(err, paymentapp.ErrNotCaptured),
		errors.Is(err, paymentapp.ErrOrderMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bookingapp.ErrNotBookingOwner),
		errors.Is(err, listingapp.ErrNotOwner),
		errors.Is(err, domainkyc.ErrNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrPastMonth),
		errors.Is(err, domainbooking.ErrTermsNotAccepted),
		errors.Is(err, domainbooking.ErrKycRequired),
		errors.Is(err, domainbooking.ErrUserRequired),
		errors.Is(err, domainpayment.ErrSignatureInvalid),
		errors.Is(err, domainrooms.ErrInvalidRoomType),
		errors.Is(err, domainrooms.ErrTotalRoomsInvalid),
		errors.Is(err, domainrooms.ErrRentInvalid),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrAddressRequired),
		errors.Is(err, domainkyc.ErrDocRequired),
		errors.Is(err, bookingapp.ErrListingMismatch),
		errors.Is(err, bookingapp.ErrListingInactive),
		errors.Is(err, bookingapp.ErrMissingReference),
		errors.Is(err, paymentapp.ErrMissingCallback),
		errors.Is(err, invoiceapp.ErrNotInvoiceable),
		errors.Is(err, month.ErrInvalidMonth):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
