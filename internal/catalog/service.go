package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/repo"
)

const (
	keyProductList = "catalog:products"
	keyProduct     = "catalog:product:"
)

type productProvider interface {
	List(ctx context.Context) ([]repo.Product, error)
	FindByID(ctx context.Context, id string) (repo.Product, error)
}

// Product is the public catalog payload.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Stock       int      `json:"stock"`
}

// Service serves the product catalog with a read-through cache.
type Service struct {
	products productProvider
	cache    *Cache
	log      zerolog.Logger
}

// NewService constructs the catalog service.
func NewService(products productProvider, cache *Cache, log zerolog.Logger) *Service {
	return &Service{products: products, cache: cache, log: log}
}

// List returns every product, preferring the cached copy.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var cached []Product
	hit, err := s.cache.GetJSON(ctx, keyProductList, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("catalog cache read failed")
	}
	if hit {
		return cached, nil
	}

	docs, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	out := make([]Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toProduct(doc))
	}
	if err := s.cache.SetJSON(ctx, keyProductList, out); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return out, nil
}

// Get returns a single product by identifier.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	var cached Product
	hit, err := s.cache.GetJSON(ctx, keyProduct+id, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("catalog cache read failed")
	}
	if hit {
		return cached, nil
	}

	doc, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Product{}, common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Product{}, fmt.Errorf("catalog get: %w", err)
	}
	out := toProduct(doc)
	if err := s.cache.SetJSON(ctx, keyProduct+id, out); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return out, nil
}

func toProduct(doc repo.Product) Product {
	images := doc.Images
	if images == nil {
		images = []string{}
	}
	return Product{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Images:      images,
		Description: doc.Description,
		Price:       doc.Price,
		Stock:       doc.Stock,
	}
}
