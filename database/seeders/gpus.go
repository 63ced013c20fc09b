package seeders

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/normalizer"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
)

func init() {
	Register("gpus", SeedGPUs)
}

// sampleGPUs are shaped like extraction records so they go through the same
// mapping as scraped data.
var sampleGPUs = []map[string]any{
	{
		"url":              "https://www.newegg.com/asus-tuf-rtx-4070-ti-super/p/N82E16814126680",
		"brand":            "asus",
		"product_title":    "ASUS TUF Gaming GeForce RTX 4070 Ti SUPER OC 16GB GDDR6X",
		"family":           "TUF Gaming",
		"variant":          "OC Edition",
		"memory_size_gb":   "16GB",
		"cooler_type":      "3 fans",
		"special_features": "Dual BIOS",
		"price":            "$849.99",
		"in_stock":         "In Stock",
		"is_oc":            true,
	},
	{
		"url":              "https://www.bestbuy.com/site/msi-ventus-2x-rtx-4060/6547123.p",
		"brand":            "MSI",
		"product_title":    "MSI Ventus 2X GeForce RTX 4060 8GB",
		"family":           "Ventus",
		"memory_size_gb":   8,
		"cooler_type":      "dual",
		"price":            299.99,
		"in_stock":         true,
	},
	{
		"url":            "https://www.amazon.com/dp/B0CS6WJTMN",
		"brand":          "zotac",
		"product_title":  "ZOTAC Gaming GeForce RTX 4070 SUPER Twin Edge",
		"memory_size_gb": "12 GB",
		"cooler_type":    "2-fan",
		"price":          "589.00",
		"in_stock":       "out of stock",
	},
}

// SeedGPUs upserts a handful of sample cards keyed by URL, so running it
// twice leaves one row per card.
func SeedGPUs(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()
	products := make([]models.Product, 0, len(sampleGPUs))
	for _, raw := range sampleGPUs {
		b, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		p, err := normalizer.MapRecord(extract.NewRecord(b), raw["url"].(string), now)
		if err != nil {
			return err
		}
		products = append(products, p)
	}
	return repositories.NewProductRepository(db).UpsertByURL(ctx, products)
}
