package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/obs"
	"github.com/murliorganic/backend-store/internal/order"
)

// Service coordinates gateway order creation and payment verification.
type Service struct {
	Gateway  Gateway
	Orders   *order.Store
	Currency string
	Log      zerolog.Logger
}

// VerifyInput carries the callback fields forwarded by the client handler.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    int64
}

// VerificationRecord captures the data behind a single verification decision.
// It exists only for the decision and its log line; it is not persisted.
type VerificationRecord struct {
	OrderID           string
	PaymentID         string
	ReceivedSignature string
	Matched           bool
}

// InitiateOrder opens a gateway order for the computed minor-unit total and
// records it as Created. The gateway is called exactly once; failure surfaces
// as GATEWAY_UNAVAILABLE without retrying.
func (s *Service) InitiateOrder(ctx context.Context, userID string, amount int64) (order.PaymentOrder, error) {
	var zero order.PaymentOrder
	if s == nil || s.Gateway == nil || s.Orders == nil {
		return zero, errors.New("payment service not configured")
	}
	if amount <= 0 {
		return zero, common.NewAppError("VALIDATION_ERROR", "amount must be a positive integer in minor units", http.StatusBadRequest, nil)
	}

	result := "error"
	defer func() {
		if obs.PaymentOrderTotal != nil {
			obs.PaymentOrderTotal.WithLabelValues(result).Inc()
		}
	}()

	receipt := "order_" + uuid.NewString()
	gw, err := s.Gateway.CreateOrder(ctx, CreateOrderParams{
		Amount:   amount,
		Currency: s.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		result = "gateway_unavailable"
		return zero, common.NewAppError("GATEWAY_UNAVAILABLE", "failed to create order", http.StatusBadGateway, err)
	}

	now := time.Now().UTC()
	po := order.PaymentOrder{
		OrderID:   gw.ID,
		UserID:    userID,
		Amount:    gw.Amount,
		Currency:  gw.Currency,
		Status:    order.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Orders.Put(ctx, po); err != nil {
		return zero, fmt.Errorf("store payment order: %w", err)
	}
	result = "created"
	s.Log.Info().Str("order_id", po.OrderID).Int64("amount", po.Amount).Msg("payment order created")
	return po, nil
}

// VerifyPayment recomputes the callback signature and settles the order's
// terminal state. A matching signature verifies the order; anything else
// fails it. Verification is idempotent for an order already verified with
// the same payment id.
func (s *Service) VerifyPayment(ctx context.Context, userID string, in VerifyInput) (order.PaymentOrder, error) {
	var zero order.PaymentOrder
	if s == nil || s.Gateway == nil || s.Orders == nil {
		return zero, errors.New("payment service not configured")
	}
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return zero, common.NewAppError("VALIDATION_ERROR", "order id, payment id and signature are required", http.StatusBadRequest, nil)
	}

	result := "error"
	defer func() {
		if obs.PaymentVerifyTotal != nil {
			obs.PaymentVerifyTotal.WithLabelValues(result).Inc()
		}
	}()

	po, err := s.Orders.Get(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			result = "not_found"
			return zero, common.NewAppError("ORDER_NOT_FOUND", "order not found or expired", http.StatusBadRequest, err)
		}
		return zero, err
	}
	if po.UserID != userID {
		result = "not_found"
		return zero, common.NewAppError("ORDER_NOT_FOUND", "order not found or expired", http.StatusBadRequest, nil)
	}
	if in.Amount > 0 && in.Amount != po.Amount {
		result = "amount_mismatch"
		return zero, common.NewAppError("AMOUNT_MISMATCH", "amount does not match the created order", http.StatusBadRequest, nil)
	}

	rec := VerificationRecord{
		OrderID:           in.OrderID,
		PaymentID:         in.PaymentID,
		ReceivedSignature: in.Signature,
		Matched:           s.Gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature),
	}
	s.Log.Info().
		Str("order_id", rec.OrderID).
		Str("payment_id", rec.PaymentID).
		Bool("matched", rec.Matched).
		Msg("payment verification")

	if !rec.Matched {
		result = "signature_mismatch"
		if _, err := s.Orders.Transition(ctx, in.OrderID, order.StatusFailed, in.PaymentID, "signature mismatch"); err != nil && !errors.Is(err, order.ErrTerminal) {
			return zero, err
		}
		return zero, common.NewAppError("SIGNATURE_MISMATCH", "payment verification failed", http.StatusBadRequest, nil)
	}

	updated, err := s.Orders.Transition(ctx, in.OrderID, order.StatusVerified, in.PaymentID, "")
	if err != nil {
		if errors.Is(err, order.ErrTerminal) {
			if updated.Status == order.StatusVerified && updated.PaymentID == in.PaymentID {
				result = "verified"
				return updated, nil
			}
			result = "terminal_conflict"
			return zero, common.NewAppError("SIGNATURE_MISMATCH", "payment verification failed", http.StatusBadRequest, nil)
		}
		return zero, err
	}
	result = "verified"
	return updated, nil
}
