package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/murliorganic/backend-store/internal/common"
)

// Service validates and persists cart updates.
type Service struct {
	Store Store
}

// Replace overwrites the user's stored cart with the provided items.
func (s *Service) Replace(ctx context.Context, userID string, items []Item) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return common.NewAppError("VALIDATION_ERROR", "productId is required", http.StatusBadRequest, nil)
		}
		if it.UnitPrice < 0 {
			return common.NewAppError("VALIDATION_ERROR", "unitPrice must be non-negative", http.StatusBadRequest, nil)
		}
		if it.Quantity <= 0 {
			return common.NewAppError("VALIDATION_ERROR", "quantity must be positive", http.StatusBadRequest, nil)
		}
	}
	return s.Store.Save(ctx, userID, items)
}

// Clear removes the user's stored cart, typically after a completed checkout.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return s.Store.Clear(ctx, userID)
}

// Get loads the user's stored cart. A missing cart is returned as an empty one.
func (s *Service) Get(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return Cart{UserID: userID, Items: []Item{}}, nil
		}
		return Cart{}, err
	}
	return c, nil
}
