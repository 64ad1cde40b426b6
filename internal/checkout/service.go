package checkout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/murliorganic/backend-store/internal/cart"
	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/obs"
	"github.com/murliorganic/backend-store/internal/order"
	"github.com/murliorganic/backend-store/internal/pricing"
)

// Service turns a user's cart into a priced quote and closes out verified
// payments.
type Service struct {
	Carts  *cart.Service
	Orders *order.Store
	Params pricing.Params
	Log    zerolog.Logger
}

// Quote is a priced snapshot of the user's cart.
type Quote struct {
	Items     []cart.Item       `json:"items"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// Receipt is returned once a verified payment has been finalised.
type Receipt struct {
	OrderID     string    `json:"order_id"`
	PaymentID   string    `json:"payment_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
}

// BuildQuote prices the user's current cart.
func (s *Service) BuildQuote(ctx context.Context, userID string) (Quote, error) {
	c, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	if len(c.Items) == 0 {
		return Quote{}, common.NewAppError("CART_EMPTY", "cart is empty", http.StatusBadRequest, nil)
	}

	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{
			ItemID:    item.ProductID,
			Qty:       item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	breakdown, err := pricing.Compute(lines, s.Params)
	if err != nil {
		if errors.Is(err, pricing.ErrNegativePrice) || errors.Is(err, pricing.ErrInvalidQty) {
			return Quote{}, common.NewAppError("VALIDATION_ERROR", "cart contains invalid lines", http.StatusBadRequest, err)
		}
		return Quote{}, err
	}
	return Quote{Items: c.Items, Breakdown: breakdown}, nil
}

// Finalize completes a checkout for an order the gateway has verified. The
// cart is cleared only after the verified state is confirmed.
func (s *Service) Finalize(ctx context.Context, userID, orderID string) (Receipt, error) {
	result := "error"
	defer func() {
		if obs.CheckoutFinalizeTotal != nil {
			obs.CheckoutFinalizeTotal.WithLabelValues(result).Inc()
		}
	}()

	po, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			result = "not_found"
			return Receipt{}, common.NewAppError("ORDER_NOT_FOUND", "order not found or expired", http.StatusBadRequest, err)
		}
		return Receipt{}, err
	}
	if po.UserID != userID {
		result = "not_found"
		return Receipt{}, common.NewAppError("ORDER_NOT_FOUND", "order not found or expired", http.StatusBadRequest, nil)
	}
	if po.Status != order.StatusVerified {
		result = "not_verified"
		return Receipt{}, common.NewAppError("ORDER_NOT_VERIFIED", "payment has not been verified for this order", http.StatusConflict, nil)
	}

	if err := s.Carts.Clear(ctx, userID); err != nil {
		s.Log.Warn().Err(err).Str("order_id", orderID).Msg("cart clear failed after verified payment")
	}

	result = "completed"
	s.Log.Info().Str("order_id", po.OrderID).Str("payment_id", po.PaymentID).Msg("checkout finalised")
	return Receipt{
		OrderID:     po.OrderID,
		PaymentID:   po.PaymentID,
		Amount:      po.Amount,
		Currency:    po.Currency,
		Status:      string(po.Status),
		CompletedAt: po.UpdatedAt,
	}, nil
}
