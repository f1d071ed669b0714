package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livonto/internal/app/policies"
	"livonto/internal/domain/shared/money"
)

func TestCreateOrder(t *testing.T) {
	var gotAuth string
	var gotBody orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(orderResponse{ID: "order_abc"})
	}))
	defer srv.Close()

	client := NewClient("key_test", "secret_test", WithBaseURL(srv.URL))
	order, err := client.CreateOrder(context.Background(), money.Money{Amount: 850000, Currency: "INR"}, "bk-1", map[string]string{"month": "2026-02"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.OrderID)

	assert.NotEmpty(t, gotAuth, "basic auth credentials must be sent")
	assert.Equal(t, int64(850000), gotBody.Amount)
	assert.Equal(t, "INR", gotBody.Currency)
	assert.Equal(t, "bk-1", gotBody.Receipt)
	assert.Equal(t, "2026-02", gotBody.Notes["month"])
}

func TestVerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/pay_123", r.URL.Path)
		json.NewEncoder(w).Encode(paymentResponse{
			ID: "pay_123", Status: "captured", Amount: 850000, Currency: "INR",
		})
	}))
	defer srv.Close()

	client := NewClient("key_test", "secret_test", WithBaseURL(srv.URL))
	payment, err := client.VerifyPayment(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, policies.ProviderStatusCaptured, payment.Status)
	assert.Equal(t, money.Money{Amount: 850000, Currency: "INR"}, payment.Amount)
}

func TestServerErrorsRetryThenSurfaceTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("key_test", "secret_test", WithBaseURL(srv.URL))
	_, err := client.VerifyPayment(context.Background(), "pay_123")
	assert.ErrorIs(t, err, policies.ErrTransientProvider)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestServerErrorRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(paymentResponse{ID: "pay_123", Status: "captured", Amount: 850000, Currency: "INR"})
	}))
	defer srv.Close()

	client := NewClient("key_test", "secret_test", WithBaseURL(srv.URL))
	payment, err := client.VerifyPayment(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "captured", payment.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("key_test", "bad_secret", WithBaseURL(srv.URL))
	_, err := client.VerifyPayment(context.Background(), "pay_123")
	assert.ErrorIs(t, err, ErrProviderRejected)
	assert.NotErrorIs(t, err, policies.ErrTransientProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOrderResponseMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := NewClient("key_test", "secret_test", WithBaseURL(srv.URL))
	_, err := client.CreateOrder(context.Background(), money.Money{Amount: 1, Currency: "INR"}, "bk-1", nil)
	assert.ErrorIs(t, err, ErrProviderRejected)
}
