package ginserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livonto/internal/app/commands"
	availabilityapp "livonto/internal/app/handlers/availability"
	bookingapp "livonto/internal/app/handlers/booking"
	invoiceapp "livonto/internal/app/handlers/invoice"
	kycapp "livonto/internal/app/handlers/kyc"
	listingapp "livonto/internal/app/handlers/listings"
	meapp "livonto/internal/app/handlers/me"
	paymentapp "livonto/internal/app/handlers/payment"
	roomsapp "livonto/internal/app/handlers/rooms"
	"livonto/internal/app/middleware"
	"livonto/internal/app/policies"
	"livonto/internal/app/queries"
	authsvc "livonto/internal/app/services/auth"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
	domainuser "livonto/internal/domain/user"
	"livonto/internal/infra/config"
	"livonto/internal/infra/obs"
	"livonto/internal/infra/payments/razorpay"
	"livonto/internal/infra/security"
	"livonto/internal/infra/storage/memory"
)

const e2eSecret = "e2e-secret"

// e2eGateway answers with a fixed order and a captured payment matching
// whatever amount was ordered.
type e2eGateway struct {
	amount money.Money
}

func (g *e2eGateway) CreateOrder(ctx context.Context, amount money.Money, receipt string, notes map[string]string) (policies.ProviderOrder, error) {
	g.amount = amount
	return policies.ProviderOrder{OrderID: "order_e2e"}, nil
}

func (g *e2eGateway) VerifyPayment(ctx context.Context, providerPaymentID string) (policies.ProviderPayment, error) {
	return policies.ProviderPayment{Status: policies.ProviderStatusCaptured, Amount: g.amount}, nil
}

func (g *e2eGateway) Name() string { return "razorpay" }

func newTestServer(t *testing.T) (http.Handler, *authsvc.Service) {
	t.Helper()

	factory := memory.NewFactory()
	box := memory.NewOutbox()
	gateway := &e2eGateway{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{Gateway: gateway, Outbox: box})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{Outbox: box})
	commands.RegisterHandler(commandBus, bookingapp.CompletionSweepCommand{}.Key(), &bookingapp.CompletionSweepHandler{Outbox: box})
	commands.RegisterHandler(commandBus, paymentapp.ConfirmPaymentCommand{}.Key(), &paymentapp.ConfirmPaymentHandler{
		Gateway:  gateway,
		Verifier: razorpay.NewVerifier(e2eSecret),
		Outbox:   box,
	})
	commands.RegisterHandler(commandBus, kycapp.SubmitKycCommand{}.Key(), &kycapp.SubmitKycHandler{})
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{})
	commands.RegisterHandler(commandBus, roomsapp.UpsertRoomConfigCommand{}.Key(), &roomsapp.UpsertRoomConfigHandler{})
	commands.RegisterHandler(commandBus, roomsapp.DeleteRoomConfigCommand{}.Key(), &roomsapp.DeleteRoomConfigHandler{})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, meapp.ListTenantBookingsQuery{}.Key(), &meapp.ListTenantBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, invoiceapp.GetInvoiceQuery{}.Key(), &invoiceapp.GetInvoiceHandler{UoWFactory: factory})

	bus := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	qbus := middleware.ChainQueries(queryBus)

	authService := &authsvc.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}

	srv := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: bus, Queries: qbus},
		Availability:   AvailabilityHandler{Queries: qbus},
		Payment:        PaymentHandler{Commands: bus},
		Kyc:            KycHandler{Commands: bus},
		Owner:          OwnerHandler{Commands: bus},
		Admin:          AdminHandler{Commands: bus},
		Auth:           &AuthHandler{Service: authService},
		Me:             MeHandler{Queries: qbus},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
	})
	return srv.Handler, authService
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registerUser(t *testing.T, h http.Handler, email string, asOwner bool) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Test User",
		"password": "long enough",
		"as_owner": asOwner,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func submitKyc(t *testing.T, h http.Handler, token string) {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("doc_type", "aadhaar"))
	require.NoError(t, form.WriteField("doc_number", "1234-5678-9012"))
	part, err := form.CreateFormFile("document", "aadhaar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func e2eSign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(e2eSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBookingFlow(t *testing.T) {
	h, authService := newTestServer(t)
	target := month.Of(time.Now()).Next()

	// Owner publishes a listing with one double-sharing room: two beds.
	ownerToken := registerUser(t, h, "owner@example.com", true)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/owner/listings", ownerToken, map[string]any{
		"title":    "Sunrise PG",
		"address":  map[string]string{"line1": "12 5th Block", "city": "Bengaluru"},
		"activate": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listingID := decode(t, rec)["listing_id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/owner/listings/"+listingID+"/rooms", ownerToken, map[string]any{
		"room_type":   "double-sharing",
		"rent_paise":  850000,
		"total_rooms": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roomID := decode(t, rec)["room_config_id"].(string)

	// Anonymous availability shows both beds free.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?month="+target.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rooms := decode(t, rec)["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, float64(2), rooms[0].(map[string]any)["available_beds"])

	// Tenant clears KYC and books a bed.
	tenantToken := registerUser(t, h, "tenant@example.com", false)
	submitKyc(t, h, tenantToken)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", tenantToken, map[string]any{
		"listing_id":      listingID,
		"room_config_id":  roomID,
		"month":           target.String(),
		"agreed_to_terms": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	bookingID := created["booking_id"].(string)
	assert.Equal(t, "order_e2e", created["provider_order_id"])
	assert.Equal(t, float64(850000), created["amount"])

	// One bed left now.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?month="+target.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms = decode(t, rec)["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, float64(1), rooms[0].(map[string]any)["available_beds"])

	// No invoice while pending.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/bookings/"+bookingID+"/invoice", tenantToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// Callback with the provider signature confirms the booking.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments/confirm", "", map[string]any{
		"booking_id":          bookingID,
		"razorpay_order_id":   "order_e2e",
		"razorpay_payment_id": "pay_e2e",
		"razorpay_signature":  e2eSign("order_e2e", "pay_e2e"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", decode(t, rec)["status"])

	rec = doJSON(t, h, http.MethodGet, "/api/v1/bookings/"+bookingID+"/invoice", tenantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, target.String(), decode(t, rec)["month"])

	// The tenant sees the booking on their dashboard.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/me/bookings", tenantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), bookingID)

	// An admin sweep after the month has elapsed completes it.
	adminToken := seedAdmin(t, authService)
	asOf := target.Next().FirstDay().Format(time.RFC3339)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/admin/sweep", adminToken, map[string]any{"as_of": asOf})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["completed_count"])
}

func seedAdmin(t *testing.T, svc *authsvc.Service) string {
	t.Helper()
	hash, err := svc.Passwords.Hash("long enough")
	require.NoError(t, err)
	admin, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "admin-1",
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
		Roles:        []domainuser.Role{domainuser.RoleAdmin},
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Users.Save(context.Background(), admin))

	result, err := svc.Login(context.Background(), authsvc.LoginParams{Email: "admin@example.com", Password: "long enough"})
	require.NoError(t, err)
	return result.Token
}

func TestRouteAuthorization(t *testing.T) {
	h, authService := newTestServer(t)
	target := month.Of(time.Now()).Next()

	// Booking endpoints demand a session.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", "", map[string]any{
		"listing_id": "lst-1", "room_config_id": "rc-1", "month": target.String(), "agreed_to_terms": true,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/me/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Owner endpoints reject plain tenants.
	tenantToken := registerUser(t, h, "tenant@example.com", false)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/owner/listings", tenantToken, map[string]any{"title": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/admin/sweep", tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Booking creation is a tenant action; an admin-only principal is
	// rejected even though it outranks tenants elsewhere.
	adminToken := seedAdmin(t, authService)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", adminToken, map[string]any{
		"listing_id": "lst-1", "room_config_id": "rc-1", "month": target.String(), "agreed_to_terms": true,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookingEndpointErrorMapping(t *testing.T) {
	h, _ := newTestServer(t)
	target := month.Of(time.Now()).Next()
	tenantToken := registerUser(t, h, "tenant@example.com", false)
	submitKyc(t, h, tenantToken)

	// Unknown listing maps to 404.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", tenantToken, map[string]any{
		"listing_id": "lst-ghost", "room_config_id": "rc-1", "month": target.String(), "agreed_to_terms": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// Malformed month maps to 400 before any dispatch.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", tenantToken, map[string]any{
		"listing_id": "lst-1", "room_config_id": "rc-1", "month": "next month", "agreed_to_terms": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/listings/lst-1/availability?month=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityConflictResponse(t *testing.T) {
	h, _ := newTestServer(t)
	target := month.Of(time.Now()).Next()

	ownerToken := registerUser(t, h, "owner@example.com", true)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/owner/listings", ownerToken, map[string]any{
		"title":    "Tiny PG",
		"address":  map[string]string{"line1": "1 Main Rd", "city": "Bengaluru"},
		"activate": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	listingID := decode(t, rec)["listing_id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/owner/listings/"+listingID+"/rooms", ownerToken, map[string]any{
		"room_type": "single", "rent_paise": 1200000, "total_rooms": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	roomID := decode(t, rec)["room_config_id"].(string)

	book := func(token string) *httptest.ResponseRecorder {
		return doJSON(t, h, http.MethodPost, "/api/v1/bookings", token, map[string]any{
			"listing_id": listingID, "room_config_id": roomID, "month": target.String(), "agreed_to_terms": true,
		})
	}

	first := registerUser(t, h, "first@example.com", false)
	submitKyc(t, h, first)
	require.Equal(t, http.StatusCreated, book(first).Code)

	second := registerUser(t, h, "second@example.com", false)
	submitKyc(t, h, second)
	rec = book(second)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "no beds available")

	// Full rooms disappear from the public view entirely.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?month="+target.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["rooms"])
}
