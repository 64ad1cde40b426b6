package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Product is the catalog document. Price is stored in minor currency units.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Images      []string           `bson:"images" json:"images"`
	Description string             `bson:"description" json:"description"`
	Price       int64              `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
}

// Products provides access to the products collection.
type Products struct {
	coll *mongo.Collection
}

// NewProducts constructs the repository over the given database.
func NewProducts(db *mongo.Database) *Products {
	return &Products{coll: db.Collection("products")}
}

// List returns all products ordered by name.
func (p *Products) List(ctx context.Context) ([]Product, error) {
	cur, err := p.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cur.Close(ctx)

	products := make([]Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// FindByID returns the product with the given identifier.
func (p *Products) FindByID(ctx context.Context, id string) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	var product Product
	if err := p.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

// Upsert inserts or replaces a product by name. Used by the seeder.
func (p *Products) Upsert(ctx context.Context, product Product) error {
	filter := bson.M{"name": product.Name}
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"images":      product.Images,
		"description": product.Description,
		"price":       product.Price,
		"stock":       product.Stock,
	}}
	_, err := p.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
