package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livonto/internal/app/policies"
	domainbooking "livonto/internal/domain/booking"
	domainpayment "livonto/internal/domain/payment"
	"livonto/internal/domain/shared/clock"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
	"livonto/internal/infra/payments/razorpay"
	"livonto/internal/infra/storage/memory"
)

var fixedNow = time.Date(2026, time.January, 10, 9, 30, 0, 0, time.UTC)

const (
	testSecret    = "s3cr3t"
	testOrderID   = "order_abc"
	testPaymentID = "pay_123"
	// HMAC-SHA256 of "order_abc|pay_123" keyed with "s3cr3t".
	testSignature = "070ea2f5813be979e4d4dd50f9840717bb01adf600c92662f401086c6cabbf9a"
)

var rent = money.Money{Amount: 850000, Currency: "INR"}

func razorpaySign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// stubGateway serves a canned provider-side payment view.
type stubGateway struct {
	status string
	amount money.Money
	err    error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount money.Money, receipt string, notes map[string]string) (policies.ProviderOrder, error) {
	return policies.ProviderOrder{OrderID: testOrderID}, nil
}

func (g *stubGateway) VerifyPayment(ctx context.Context, providerPaymentID string) (policies.ProviderPayment, error) {
	if g.err != nil {
		return policies.ProviderPayment{}, g.err
	}
	return policies.ProviderPayment{Status: g.status, Amount: g.amount}, nil
}

type fixture struct {
	factory memory.Factory
	gateway *stubGateway
	handler *ConfirmPaymentHandler
}

// newFixture seeds one pending booking with an initiated payment attempt
// against testOrderID.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:            "bk-1",
		UserID:        "user-1",
		ListingID:     "lst-1",
		RoomConfigID:  "rc-1",
		StartMonth:    month.Month{Year: 2026, Month: time.February},
		TotalAmount:   rent,
		KycID:         "kyc-1",
		AgreedToTerms: true,
		Now:           fixedNow,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, factory.BookingRepo.Save(ctx, b))

	pay := domainpayment.NewPayment(domainpayment.CreateParams{
		ID:              "pay-attempt-1",
		BookingID:       b.ID,
		Amount:          rent,
		Provider:        "razorpay",
		ProviderOrderID: testOrderID,
		Now:             fixedNow,
	})
	require.NoError(t, factory.PaymentRepo.Save(ctx, pay))

	gateway := &stubGateway{status: policies.ProviderStatusCaptured, amount: rent}
	return &fixture{
		factory: factory,
		gateway: gateway,
		handler: &ConfirmPaymentHandler{
			UoWFactory: factory,
			Gateway:    gateway,
			Verifier:   razorpay.NewVerifier(testSecret),
			Clock:      clock.Fixed{At: fixedNow},
			Outbox:     memory.NewOutbox(),
		},
	}
}

func validCommand() ConfirmPaymentCommand {
	return ConfirmPaymentCommand{
		BookingID:         "bk-1",
		ProviderOrderID:   testOrderID,
		ProviderPaymentID: testPaymentID,
		Signature:         testSignature,
	}
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.handler.Handle(ctx, validCommand())
	require.NoError(t, err)
	assert.Equal(t, "bk-1", result.BookingID)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)
	assert.False(t, result.AlreadyConfirmed)

	b, err := f.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)

	pay, err := f.factory.PaymentRepo.LatestByBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusSuccess, pay.Status)
	assert.Equal(t, testPaymentID, pay.ProviderPaymentID)
}

func TestConfirmPaymentDuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, validCommand())
	require.NoError(t, err)

	// The provider retries callbacks; the second delivery is a success
	// response, not a second transition.
	result, err := f.handler.Handle(ctx, validCommand())
	require.NoError(t, err)
	assert.True(t, result.AlreadyConfirmed)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)
}

func TestConfirmPaymentInvalidSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cmd := validCommand()
	cmd.Signature = "deadbeef"
	_, err := f.handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, domainpayment.ErrSignatureInvalid)

	// Nothing moved.
	b, err := f.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, b.Status)
	pay, err := f.factory.PaymentRepo.LatestByBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusInitiated, pay.Status)
}

func TestConfirmPaymentNotCaptured(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = "failed"

	_, err := f.handler.Handle(context.Background(), validCommand())
	assert.ErrorIs(t, err, ErrNotCaptured)
}

func TestConfirmPaymentAuthorizedCounts(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = policies.ProviderStatusAuthorized

	result, err := f.handler.Handle(context.Background(), validCommand())
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)
}

func TestConfirmPaymentAmountMismatch(t *testing.T) {
	f := newFixture(t)
	f.gateway.amount = money.Money{Amount: rent.Amount - 1, Currency: "INR"}
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, validCommand())
	assert.ErrorIs(t, err, domainpayment.ErrAmountMismatch)

	b, err := f.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, b.Status)
}

func TestConfirmPaymentCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	f.gateway.amount = money.Money{Amount: rent.Amount, Currency: "USD"}

	_, err := f.handler.Handle(context.Background(), validCommand())
	assert.ErrorIs(t, err, domainpayment.ErrAmountMismatch)
}

func TestConfirmPaymentOrderMismatch(t *testing.T) {
	f := newFixture(t)

	cmd := validCommand()
	cmd.ProviderOrderID = "order_other"
	// The signature must still be valid for the submitted pair.
	cmd.Signature = razorpaySign(cmd.ProviderOrderID, cmd.ProviderPaymentID)

	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrOrderMismatch)
}

func TestConfirmPaymentTransientProvider(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = policies.ErrTransientProvider

	_, err := f.handler.Handle(context.Background(), validCommand())
	assert.ErrorIs(t, err, policies.ErrTransientProvider)
}

func TestConfirmPaymentUnknownBooking(t *testing.T) {
	f := newFixture(t)

	cmd := validCommand()
	cmd.BookingID = "bk-missing"
	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}
