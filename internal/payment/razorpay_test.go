package payment_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murliorganic/backend-store/internal/payment"
)

func signFor(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_abc123",
			"amount":   gotBody["amount"],
			"currency": "INR",
		})
	}))
	defer srv.Close()

	gw := payment.Razorpay{KeyID: "key", KeySecret: "secret", BaseURL: srv.URL}
	got, err := gw.CreateOrder(context.Background(), payment.CreateOrderParams{
		Amount:   77_700,
		Currency: "INR",
		Receipt:  "order_r1",
	})
	require.NoError(t, err)
	require.Equal(t, "order_abc123", got.ID)
	require.Equal(t, int64(77_700), got.Amount)
	require.Equal(t, "INR", got.Currency)
	require.Equal(t, "key", gotAuthUser)
	require.Equal(t, "secret", gotAuthPass)
	require.Equal(t, float64(77_700), gotBody["amount"])
	require.Equal(t, "order_r1", gotBody["receipt"])
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "SERVER_ERROR", "description": "gateway down"},
		})
	}))
	defer srv.Close()

	gw := payment.Razorpay{KeyID: "key", KeySecret: "secret", BaseURL: srv.URL}
	_, err := gw.CreateOrder(context.Background(), payment.CreateOrderParams{Amount: 100, Currency: "INR"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "gateway down")
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	gw := payment.Razorpay{KeyID: "key", KeySecret: "secret"}
	_, err := gw.CreateOrder(context.Background(), payment.CreateOrderParams{Amount: 0, Currency: "INR"})
	require.Error(t, err)
	_, err = gw.CreateOrder(context.Background(), payment.CreateOrderParams{Amount: 100})
	require.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	gw := payment.Razorpay{KeySecret: "secret"}

	sig := signFor("secret", "order_1", "pay_1")
	require.True(t, gw.VerifySignature("order_1", "pay_1", sig))

	// Stable across repeated calls.
	for i := 0; i < 10; i++ {
		require.True(t, gw.VerifySignature("order_1", "pay_1", sig))
	}

	// A one-character change in either identifier breaks the match.
	require.False(t, gw.VerifySignature("order_2", "pay_1", sig))
	require.False(t, gw.VerifySignature("order_1", "pay_2", sig))

	// Tampered signature never matches.
	tampered := signFor("secret", "order_1", "pay_1")
	tampered = "0" + tampered[1:]
	if tampered == sig {
		tampered = "1" + sig[1:]
	}
	require.False(t, gw.VerifySignature("order_1", "pay_1", tampered))

	// Empty inputs never match.
	require.False(t, gw.VerifySignature("", "pay_1", sig))
	require.False(t, gw.VerifySignature("order_1", "pay_1", ""))
}
