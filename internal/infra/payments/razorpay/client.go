// Package razorpay implements the payment gateway port against the Razorpay
// Orders and Payments REST APIs.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"livonto/internal/app/policies"
	"livonto/internal/domain/shared/money"
)

const defaultBaseURL = "https://api.razorpay.com"

var ErrProviderRejected = errors.New("razorpay: provider rejected the request")

// Client talks to Razorpay with basic-auth API credentials. Amounts cross
// the wire in paise, which matches the domain's money representation.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
	retries int
}

type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func NewClient(keyID, secret string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		keyID:   keyID,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
		retries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "razorpay"
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a provider-side order the client pays against.
func (c *Client) CreateOrder(ctx context.Context, amount money.Money, receipt string, notes map[string]string) (policies.ProviderOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amount.Amount,
		Currency: amount.Currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return policies.ProviderOrder{}, err
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &resp); err != nil {
		return policies.ProviderOrder{}, err
	}
	if resp.ID == "" {
		return policies.ProviderOrder{}, fmt.Errorf("razorpay: order response missing id: %w", ErrProviderRejected)
	}
	return policies.ProviderOrder{OrderID: resp.ID}, nil
}

type paymentResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyPayment fetches the provider's authoritative view of a payment.
func (c *Client) VerifyPayment(ctx context.Context, providerPaymentID string) (policies.ProviderPayment, error) {
	var resp paymentResponse
	path := "/v1/payments/" + providerPaymentID
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return policies.ProviderPayment{}, err
	}
	return policies.ProviderPayment{
		Status: resp.Status,
		Amount: money.Money{Amount: resp.Amount, Currency: resp.Currency},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		lastErr = c.doOnce(ctx, method, path, body, out)
		if lastErr == nil || !errors.Is(lastErr, policies.ErrTransientProvider) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("razorpay: %v: %w", err, policies.ErrTransientProvider)
		}
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode >= 500:
		return fmt.Errorf("razorpay: status %d: %w", resp.StatusCode, policies.ErrTransientProvider)
	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("razorpay: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(payload)), ErrProviderRejected)
	}
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
