package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Razorpay implements the Gateway interface against the Razorpay Orders API.
type Razorpay struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Client    *http.Client
	Timeout   time.Duration
}

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a gateway order for the given minor-unit amount. A single
// request is issued with a bounded timeout; failures are returned to the
// caller without retrying.
func (r Razorpay) CreateOrder(ctx context.Context, params CreateOrderParams) (GatewayOrder, error) {
	var zero GatewayOrder
	if params.Amount <= 0 {
		return zero, errors.New("razorpay: amount must be positive")
	}
	if strings.TrimSpace(params.Currency) == "" {
		return zero, errors.New("razorpay: currency is required")
	}

	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
	})
	if err != nil {
		return zero, fmt.Errorf("razorpay: encode order: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.ordersURL(), bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("razorpay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.KeyID, r.KeySecret)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr razorpayErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Description != "" {
			return zero, fmt.Errorf("razorpay: create order: %s (%s)", apiErr.Error.Description, resp.Status)
		}
		return zero, fmt.Errorf("razorpay: create order: unexpected status %s", resp.Status)
	}

	var order razorpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return zero, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if order.ID == "" {
		return zero, errors.New("razorpay: response missing order id")
	}
	return GatewayOrder{ID: order.ID, Amount: order.Amount, Currency: order.Currency}, nil
}

// VerifySignature checks a payment callback signature: hex-encoded
// HMAC-SHA256 of "orderID|paymentID" under the key secret, compared in
// constant time.
func (r Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	expected := r.computeSignature(orderID, paymentID)
	provided := strings.TrimSpace(signature)
	if expected == "" || provided == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(provided))
}

func (r Razorpay) computeSignature(orderID, paymentID string) string {
	key := strings.TrimSpace(r.KeySecret)
	if key == "" || orderID == "" || paymentID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (r Razorpay) ordersURL() string {
	host := strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if host == "" {
		host = "https://api.razorpay.com"
	}
	return host + "/v1/orders"
}
