package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/pkg/cache"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

const generationKey = "products:generation"

// ProductReader is the read side of the product repository.
type ProductReader interface {
	List(ctx context.Context, f repositories.ProductFilter) ([]models.Product, repositories.Page, error)
	FindByID(ctx context.Context, id uint) (models.Product, error)
	FilterOptions(ctx context.Context) (repositories.FilterOptions, error)
}

// ProductPage is one page of the catalog listing.
type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta repositories.Page `json:"meta"`
}

// Catalog serves product listings, caching them in Redis. Cached pages are
// keyed by a generation counter, so bumping it orphans every stale page at
// once and the TTL cleans them up.
type Catalog struct {
	products ProductReader
	cache    *cache.Store
	ttl      time.Duration
}

// NewCatalog wires a Catalog. A nil cache disables caching.
func NewCatalog(products ProductReader, c *cache.Store, ttl time.Duration) *Catalog {
	return &Catalog{products: products, cache: c, ttl: ttl}
}

// List returns the page matching f.
func (c *Catalog) List(ctx context.Context, f repositories.ProductFilter) (ProductPage, error) {
	key, keyErr := c.listKey(ctx, f)

	var page ProductPage
	if keyErr == nil && c.cache.Get(ctx, key, &page) {
		return page, nil
	}

	products, meta, err := c.products.List(ctx, f)
	if err != nil {
		return ProductPage{}, &StoreError{Op: "list products", Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	page = ProductPage{Data: products, Meta: meta}

	if keyErr == nil {
		if err := c.cache.Set(ctx, key, page, c.ttl); err != nil {
			logger.WithCtx(ctx).Warn("catalog: cache write failed", "error", err)
		}
	}
	return page, nil
}

// Find returns one product.
func (c *Catalog) Find(ctx context.Context, id uint) (models.Product, error) {
	return c.products.FindByID(ctx, id)
}

// FilterOptions returns the values available for each listing filter.
func (c *Catalog) FilterOptions(ctx context.Context) (repositories.FilterOptions, error) {
	key, keyErr := c.generationKey(ctx, "filters")

	var opts repositories.FilterOptions
	if keyErr == nil && c.cache.Get(ctx, key, &opts) {
		return opts, nil
	}

	opts, err := c.products.FilterOptions(ctx)
	if err != nil {
		return opts, &StoreError{Op: "filter options", Err: err}
	}
	if keyErr == nil {
		if err := c.cache.Set(ctx, key, opts, c.ttl); err != nil {
			logger.WithCtx(ctx).Warn("catalog: cache write failed", "key", key, "error", err)
		}
	}
	return opts, nil
}

// Invalidate retires every cached page.
func (c *Catalog) Invalidate(ctx context.Context) error {
	_, err := c.cache.Incr(ctx, generationKey)
	return err
}

func (c *Catalog) listKey(ctx context.Context, f repositories.ProductFilter) (string, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return c.generationKey(ctx, "list:"+hex.EncodeToString(sum[:12]))
}

func (c *Catalog) generationKey(ctx context.Context, suffix string) (string, error) {
	gen, err := c.cache.Int(ctx, generationKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:v%d:%s", gen, suffix), nil
}
