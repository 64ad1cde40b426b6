package main

import (
	"context"
	"log"
	"time"

	"github.com/murliorganic/backend-store/internal/config"
	"github.com/murliorganic/backend-store/internal/pricing"
	"github.com/murliorganic/backend-store/internal/repo"
)

type seedProduct struct {
	Name        string
	Description string
	Price       string
	Images      []string
	Stock       int
}

var products = []seedProduct{
	{
		Name:        "A2 Desi Cow Ghee",
		Description: "Bilona-churned ghee from grass-fed desi cows, 500ml jar.",
		Price:       "850.00",
		Images:      []string{"https://cdn.murliorganic.com/products/a2-ghee.jpg"},
		Stock:       60,
	},
	{
		Name:        "Cold-Pressed Groundnut Oil",
		Description: "Wood-pressed groundnut oil, 1L bottle.",
		Price:       "420.00",
		Images:      []string{"https://cdn.murliorganic.com/products/groundnut-oil.jpg"},
		Stock:       80,
	},
	{
		Name:        "Raw Forest Honey",
		Description: "Unprocessed multifloral honey from the Western Ghats, 500g.",
		Price:       "380.00",
		Images:      []string{"https://cdn.murliorganic.com/products/forest-honey.jpg"},
		Stock:       45,
	},
	{
		Name:        "Organic Jaggery Powder",
		Description: "Chemical-free jaggery powder, 1kg pouch.",
		Price:       "160.00",
		Images:      []string{"https://cdn.murliorganic.com/products/jaggery.jpg"},
		Stock:       120,
	},
	{
		Name:        "Stone-Ground Turmeric Powder",
		Description: "Lakadong turmeric with high curcumin content, 250g.",
		Price:       "220.00",
		Images:      []string{"https://cdn.murliorganic.com/products/turmeric.jpg"},
		Stock:       90,
	},
	{
		Name:        "Hand-Pounded Red Rice",
		Description: "Unpolished red rice from heritage paddy, 5kg.",
		Price:       "540.00",
		Images:      []string{"https://cdn.murliorganic.com/products/red-rice.jpg"},
		Stock:       35,
	},
	{
		Name:        "Organic Moong Dal",
		Description: "Pesticide-free split green gram, 1kg.",
		Price:       "190.00",
		Images:      []string{"https://cdn.murliorganic.com/products/moong-dal.jpg"},
		Stock:       100,
	},
	{
		Name:        "Himalayan Pink Salt",
		Description: "Unrefined rock salt, 1kg pouch.",
		Price:       "95.00",
		Images:      []string{"https://cdn.murliorganic.com/products/pink-salt.jpg"},
		Stock:       150,
	},
}

func main() {
	cfg := config.MustLoad()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := repo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("disconnect mongo: %v", err)
		}
	}()

	store := repo.NewProducts(client.Database(cfg.MongoDatabase))

	log.Println("Seeding products...")
	for _, p := range products {
		price, err := pricing.MinorFromDecimal(p.Price)
		if err != nil {
			log.Fatalf("parse price for %q: %v", p.Name, err)
		}
		err = store.Upsert(ctx, repo.Product{
			Name:        p.Name,
			Description: p.Description,
			Images:      p.Images,
			Price:       price,
			Stock:       p.Stock,
		})
		if err != nil {
			log.Fatalf("upsert %q: %v", p.Name, err)
		}
		log.Printf("  %s (%s)", p.Name, pricing.FormatMinor(price))
	}
	log.Println("Seeding completed successfully!")
}
