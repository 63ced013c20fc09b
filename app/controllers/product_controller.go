package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/app/services"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

// Catalog is the read side the product endpoints depend on.
type Catalog interface {
	List(ctx context.Context, f repositories.ProductFilter) (services.ProductPage, error)
	Find(ctx context.Context, id uint) (models.Product, error)
	FilterOptions(ctx context.Context) (repositories.FilterOptions, error)
}

type ProductController struct {
	catalog Catalog
}

func NewProductController(catalog Catalog) *ProductController {
	return &ProductController{catalog: catalog}
}

// productQuery is the query string accepted by GET /api/products.
type productQuery struct {
	Brand      string `query:"brand"      validate:"max=100"`
	Memory     int    `query:"memory"     validate:"gte=0"`
	CoolerType string `query:"cooler"     validate:"max=50"`
	Family     string `query:"family"     validate:"max=100"`
	Retailer   string `query:"retailer"   validate:"max=255"`
	IsOC       *bool  `query:"oc"`
	InStock    *bool  `query:"in_stock"`
	Q          string `query:"q"          validate:"max=200"`
	MinPrice   string `query:"min_price"  validate:"nullable,numeric"`
	MaxPrice   string `query:"max_price"  validate:"nullable,numeric"`
	Sort       string `query:"sort"       validate:"nullable,in=price,brand,product_title,memory_size_gb,family,retailer,created_at,updated_at"`
	Order      string `query:"order"      validate:"nullable,in=asc,desc"`
	Page       int    `query:"page"       validate:"gte=0"`
	Limit      int    `query:"limit"      validate:"gte=0"`
}

func (q productQuery) filter() repositories.ProductFilter {
	f := repositories.ProductFilter{
		Brand:      strings.TrimSpace(q.Brand),
		MemoryGB:   q.Memory,
		CoolerType: strings.TrimSpace(q.CoolerType),
		Family:     strings.TrimSpace(q.Family),
		Retailer:   strings.TrimSpace(q.Retailer),
		IsOC:       q.IsOC,
		InStock:    q.InStock,
		Query:      strings.TrimSpace(q.Q),
		Sort:       q.Sort,
		Order:      q.Order,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if d, err := decimal.NewFromString(q.MinPrice); err == nil {
		f.MinPrice = &d
	}
	if d, err := decimal.NewFromString(q.MaxPrice); err == nil {
		f.MaxPrice = &d
	}
	return f
}

// Index lists products. GET /api/products
func (pc *ProductController) Index(c *ctx.Context) {
	var q productQuery
	if !c.BindQuery(&q) {
		return
	}

	page, err := pc.catalog.List(c.Context(), q.filter())
	if err != nil {
		logger.WithCtx(c.Context()).Error("products: list failed", "error", err)
		c.Error(http.StatusInternalServerError, "Could not load products")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Show returns one product. GET /api/products/{id}
func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}

	product, err := pc.catalog.Find(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		c.NotFound("Product not found")
		return
	}
	if err != nil {
		logger.WithCtx(c.Context()).Error("products: find failed", "id", id, "error", err)
		c.Error(http.StatusInternalServerError, "Could not load product")
		return
	}
	c.Success(product)
}

// Filters returns the distinct values for each listing filter.
// GET /api/products/filters
func (pc *ProductController) Filters(c *ctx.Context) {
	opts, err := pc.catalog.FilterOptions(c.Context())
	if err != nil {
		logger.WithCtx(c.Context()).Error("products: filter options failed", "error", err)
		c.Error(http.StatusInternalServerError, "Could not load filters")
		return
	}
	c.Success(opts)
}
