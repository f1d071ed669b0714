package booking

import (
	"github.com/google/uuid"

	"livonto/internal/app/policies"
)

func newPaymentID() string { return uuid.NewString() }

func providerName(gw policies.PaymentGateway) string {
	if named, ok := gw.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "razorpay"
}
