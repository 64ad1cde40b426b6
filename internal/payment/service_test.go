package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/order"
	"github.com/murliorganic/backend-store/internal/payment"
)

type fakeGateway struct {
	orders    int
	failNext  bool
	secretSig string
	lastReq   payment.CreateOrderParams
}

func (g *fakeGateway) CreateOrder(_ context.Context, params payment.CreateOrderParams) (payment.GatewayOrder, error) {
	g.orders++
	g.lastReq = params
	if g.failNext {
		return payment.GatewayOrder{}, errors.New("connection refused")
	}
	return payment.GatewayOrder{ID: "order_fake1", Amount: params.Amount, Currency: params.Currency}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == g.secretSig
}

func newService(t *testing.T) (*payment.Service, *fakeGateway) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gw := &fakeGateway{secretSig: "good-signature"}
	svc := &payment.Service{
		Gateway:  gw,
		Orders:   &order.Store{R: client, TTL: time.Minute},
		Currency: "INR",
		Log:      zerolog.Nop(),
	}
	return svc, gw
}

func TestInitiateOrder(t *testing.T) {
	svc, gw := newService(t)
	ctx := context.Background()

	po, err := svc.InitiateOrder(ctx, "user-1", 77_700)
	require.NoError(t, err)
	require.Equal(t, "order_fake1", po.OrderID)
	require.Equal(t, int64(77_700), po.Amount)
	require.Equal(t, "INR", po.Currency)
	require.Equal(t, order.StatusCreated, po.Status)
	require.Equal(t, 1, gw.orders)
	require.NotEmpty(t, gw.lastReq.Receipt)

	stored, err := svc.Orders.Get(ctx, po.OrderID)
	require.NoError(t, err)
	require.Equal(t, order.StatusCreated, stored.Status)
}

func TestInitiateOrderRejectsNonPositiveAmount(t *testing.T) {
	svc, gw := newService(t)
	_, err := svc.InitiateOrder(context.Background(), "user-1", 0)
	requireAppError(t, err, "VALIDATION_ERROR")
	require.Zero(t, gw.orders, "gateway must not be called for invalid input")
}

func TestInitiateOrderGatewayFailure(t *testing.T) {
	svc, gw := newService(t)
	gw.failNext = true

	_, err := svc.InitiateOrder(context.Background(), "user-1", 1000)
	requireAppError(t, err, "GATEWAY_UNAVAILABLE")
	require.Equal(t, 1, gw.orders, "exactly one attempt, no retry")
}

func TestVerifyPayment(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	po, err := svc.InitiateOrder(ctx, "user-1", 1000)
	require.NoError(t, err)

	verified, err := svc.VerifyPayment(ctx, "user-1", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "good-signature",
		Amount:    1000,
	})
	require.NoError(t, err)
	require.Equal(t, order.StatusVerified, verified.Status)
	require.Equal(t, "pay_1", verified.PaymentID)

	// Re-verifying with the same payment id is idempotent.
	again, err := svc.VerifyPayment(ctx, "user-1", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "good-signature",
	})
	require.NoError(t, err)
	require.Equal(t, order.StatusVerified, again.Status)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	po, err := svc.InitiateOrder(ctx, "user-1", 1000)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, "user-1", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "forged",
	})
	requireAppError(t, err, "SIGNATURE_MISMATCH")

	stored, err := svc.Orders.Get(ctx, po.OrderID)
	require.NoError(t, err)
	require.Equal(t, order.StatusFailed, stored.Status)

	// A failed order can never be verified afterwards.
	_, err = svc.VerifyPayment(ctx, "user-1", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "good-signature",
	})
	requireAppError(t, err, "SIGNATURE_MISMATCH")
	stored, err = svc.Orders.Get(ctx, po.OrderID)
	require.NoError(t, err)
	require.Equal(t, order.StatusFailed, stored.Status)
}

func TestVerifyPaymentAmountMismatch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	po, err := svc.InitiateOrder(ctx, "user-1", 1000)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, "user-1", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "good-signature",
		Amount:    999,
	})
	requireAppError(t, err, "AMOUNT_MISMATCH")
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.VerifyPayment(context.Background(), "user-1", payment.VerifyInput{
		OrderID:   "order_missing",
		PaymentID: "pay_1",
		Signature: "good-signature",
	})
	requireAppError(t, err, "ORDER_NOT_FOUND")
}

func TestVerifyPaymentWrongUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	po, err := svc.InitiateOrder(ctx, "user-1", 1000)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, "user-2", payment.VerifyInput{
		OrderID:   po.OrderID,
		PaymentID: "pay_1",
		Signature: "good-signature",
	})
	requireAppError(t, err, "ORDER_NOT_FOUND")
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}
