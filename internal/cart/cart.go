package cart

import (
	"context"
	"errors"
	"time"
)

// Item is a single cart line. UnitPrice is in minor currency units.
type Item struct {
	ProductID string `bson:"product_id" json:"productId" validate:"required"`
	Name      string `bson:"name" json:"name"`
	UnitPrice int64  `bson:"unit_price" json:"unitPrice" validate:"gte=0"`
	Quantity  int    `bson:"quantity" json:"quantity" validate:"gt=0"`
}

// Cart is the server-side copy of a user's cart.
type Cart struct {
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrEmpty indicates the user has no stored cart.
var ErrEmpty = errors.New("cart: no cart stored for user")

// Store is the persistence contract for carts: an explicit load/save/clear
// boundary instead of ambient client-side state.
type Store interface {
	Load(ctx context.Context, userID string) (Cart, error)
	Save(ctx context.Context, userID string, items []Item) error
	Clear(ctx context.Context, userID string) error
}
