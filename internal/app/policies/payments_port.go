package policies

import (
	"context"
	"errors"

	"livonto/internal/domain/shared/money"
)

// ErrTransientProvider marks a network/timeout failure talking to the
// payment provider; callers may retry, nothing was decided.
var ErrTransientProvider = errors.New("payments: transient provider failure")

// ProviderOrder is the provider-side order a client pays against.
type ProviderOrder struct {
	OrderID string
}

// ProviderPayment is the provider's authoritative view of a payment,
// fetched server-side to defend against forged callbacks.
type ProviderPayment struct {
	Status string
	Amount money.Money
}

// Captured statuses accepted as proof of payment.
const (
	ProviderStatusAuthorized = "authorized"
	ProviderStatusCaptured   = "captured"
)

// PaymentGateway is the outbound port to the payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount money.Money, receipt string, notes map[string]string) (ProviderOrder, error)
	VerifyPayment(ctx context.Context, providerPaymentID string) (ProviderPayment, error)
}

// SignatureVerifier checks a provider callback signature in constant time.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) error
}
