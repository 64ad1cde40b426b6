package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/murliorganic/backend-store/internal/cart"
)

// Carts persists per-user carts with upsert semantics, one document per user.
type Carts struct {
	coll *mongo.Collection
}

// NewCarts constructs the repository over the given database.
func NewCarts(db *mongo.Database) *Carts {
	return &Carts{coll: db.Collection("carts")}
}

type cartDoc struct {
	UserID    string          `bson:"user_id"`
	Items     []cart.Item     `bson:"items"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// Load returns the stored cart for the user. A user without a cart gets
// cart.ErrEmpty so callers can distinguish "never saved" from a real failure.
func (c *Carts) Load(ctx context.Context, userID string) (cart.Cart, error) {
	var doc cartDoc
	err := c.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return cart.Cart{}, cart.ErrEmpty
		}
		return cart.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return cart.Cart{UserID: doc.UserID, Items: doc.Items, UpdatedAt: doc.UpdatedAt}, nil
}

// Save upserts the user's cart, replacing any previous contents.
func (c *Carts) Save(ctx context.Context, userID string, items []cart.Item) error {
	update := bson.M{"$set": cartDoc{
		UserID:    userID,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
	}}
	_, err := c.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the user's cart document. Clearing an absent cart is not an error.
func (c *Carts) Clear(ctx context.Context, userID string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
