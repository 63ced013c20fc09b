package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
)

const (
	insertBatchSize = 100
	lookupChunkSize = 500
	defaultLimit    = 24
	maxLimit        = 100
)

// sortable maps accepted sort keys to columns.
var sortable = map[string]string{
	"price":          "price",
	"brand":          "brand",
	"product_title":  "product_title",
	"memory_size_gb": "memory_size_gb",
	"family":         "family",
	"retailer":       "retailer",
	"created_at":     "created_at",
	"updated_at":     "updated_at",
}

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Brand      string
	MemoryGB   int
	CoolerType string
	Family     string
	Retailer   string
	IsOC       *bool
	InStock    *bool
	Query      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Order      string
	Page       int
	Limit      int
}

// Page describes where a listing sits in the full result.
type Page struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// FilterOptions lists the distinct values available for each filter.
type FilterOptions struct {
	Brands      []string        `json:"brands"`
	Families    []string        `json:"families"`
	CoolerTypes []string        `json:"cooler_types"`
	Retailers   []string        `json:"retailers"`
	MemorySizes []int           `json:"memory_sizes"`
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ExistingURLs returns the subset of urls already stored.
func (r *ProductRepository) ExistingURLs(ctx context.Context, urls []string) ([]string, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var found []string
	for start := 0; start < len(urls); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(urls))

		var chunk []string
		err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("url IN ?", urls[start:end]).
			Pluck("url", &chunk).Error
		if err != nil {
			return nil, fmt.Errorf("repositories: existing urls: %w", err)
		}
		found = append(found, chunk...)
	}
	return found, nil
}

// BulkInsert stores products in one transaction. A unique violation on url
// rolls the whole batch back and is reported as ErrDuplicateURL.
func (r *ProductRepository) BulkInsert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	defer metrics.ObserveDBQuery("insert", time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&products, insertBatchSize).Error
	})
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateURL, err)
	}
	if err != nil {
		return fmt.Errorf("repositories: bulk insert: %w", err)
	}
	return nil
}

// UpsertByURL inserts products, updating the row that already holds the same
// url instead of failing.
func (r *ProductRepository) UpsertByURL(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	defer metrics.ObserveDBQuery("upsert", time.Now())

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"brand", "product_title", "family", "variant", "memory_size_gb",
			"cooler_type", "special_features", "price", "in_stock", "is_oc",
			"retailer", "raw_data", "fetched_at", "updated_at",
		}),
	}).CreateInBatches(&products, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("repositories: upsert: %w", err)
	}
	return nil
}

// WithURL returns up to limit products that have a url and an id above
// afterID, in id order.
func (r *ProductRepository) WithURL(ctx context.Context, afterID uint, limit int) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id > ? AND url IS NOT NULL AND url <> ''", afterID).
		Order("id asc").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: products with url: %w", err)
	}
	return products, nil
}

// CountWithURL counts products that can be re-scraped.
func (r *ProductRepository) CountWithURL(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("url IS NOT NULL AND url <> ''").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("repositories: count with url: %w", err)
	}
	return n, nil
}

// UpdatePriceStock writes a refreshed price and stock flag for one product.
func (r *ProductRepository) UpdatePriceStock(ctx context.Context, id uint, price decimal.Decimal, inStock bool, at time.Time) error {
	defer metrics.ObserveDBQuery("update", time.Now())

	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"price":      price,
			"in_stock":   inStock,
			"fetched_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("repositories: update price for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID looks up a product by primary key.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var p models.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("repositories: find %d: %w", id, err)
	}
	return p, nil
}

// List returns one page of products matching f.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, Page, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f).Session(&gorm.Session{})

	page := Page{CurrentPage: f.Page, PerPage: f.Limit}
	if page.CurrentPage < 1 {
		page.CurrentPage = 1
	}
	if page.PerPage < 1 {
		page.PerPage = defaultLimit
	}
	if page.PerPage > maxLimit {
		page.PerPage = maxLimit
	}

	if err := q.Count(&page.Total).Error; err != nil {
		return nil, page, fmt.Errorf("repositories: count products: %w", err)
	}
	page.LastPage = int(math.Ceil(float64(page.Total) / float64(page.PerPage)))

	var products []models.Product
	err := q.Order(orderBy(f.Sort, f.Order)).
		Offset((page.CurrentPage - 1) * page.PerPage).
		Limit(page.PerPage).
		Find(&products).Error
	if err != nil {
		return nil, page, fmt.Errorf("repositories: list products: %w", err)
	}
	return products, page, nil
}

func (r *ProductRepository) applyFilter(q *gorm.DB, f ProductFilter) *gorm.DB {
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.MemoryGB > 0 {
		q = q.Where("memory_size_gb = ?", f.MemoryGB)
	}
	if f.CoolerType != "" {
		q = q.Where("cooler_type = ?", f.CoolerType)
	}
	if f.Family != "" {
		q = q.Where("family = ?", f.Family)
	}
	if f.Retailer != "" {
		q = q.Where("retailer = ?", f.Retailer)
	}
	if f.IsOC != nil {
		q = q.Where("is_oc = ?", *f.IsOC)
	}
	if f.InStock != nil {
		q = q.Where("in_stock = ?", *f.InStock)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(brand) LIKE ? OR LOWER(product_title) LIKE ? OR LOWER(family) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

func orderBy(sort, order string) clause.OrderByColumn {
	col, ok := sortable[sort]
	if !ok {
		col = "created_at"
	}
	desc := strings.EqualFold(order, "desc")
	if sort == "" && order == "" {
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}
}

// FilterOptions collects the distinct values behind each listing filter.
func (r *ProductRepository) FilterOptions(ctx context.Context) (FilterOptions, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var opts FilterOptions
	db := r.db.WithContext(ctx).Model(&models.Product{}).Session(&gorm.Session{})

	distinct := []struct {
		column string
		dest   *[]string
	}{
		{"brand", &opts.Brands},
		{"family", &opts.Families},
		{"cooler_type", &opts.CoolerTypes},
		{"retailer", &opts.Retailers},
	}
	for _, d := range distinct {
		err := db.Session(&gorm.Session{}).
			Where(d.column+" <> ''").
			Distinct(d.column).
			Order(d.column).
			Pluck(d.column, d.dest).Error
		if err != nil {
			return opts, fmt.Errorf("repositories: distinct %s: %w", d.column, err)
		}
	}

	err := db.Session(&gorm.Session{}).
		Where("memory_size_gb > 0").
		Distinct("memory_size_gb").
		Order("memory_size_gb").
		Pluck("memory_size_gb", &opts.MemorySizes).Error
	if err != nil {
		return opts, fmt.Errorf("repositories: distinct memory: %w", err)
	}

	var bounds struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	err = db.Session(&gorm.Session{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&bounds).Error
	if err != nil {
		return opts, fmt.Errorf("repositories: price bounds: %w", err)
	}
	opts.MinPrice = bounds.MinPrice.Decimal
	opts.MaxPrice = bounds.MaxPrice.Decimal
	return opts, nil
}
