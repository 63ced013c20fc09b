package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
)

// fakeStore is an in-memory ProductStore that enforces URL uniqueness the
// way the real table does.
type fakeStore struct {
	mu       sync.Mutex
	products []models.Product
	nextID   uint

	bulkCalls   [][]models.Product
	upsertCalls [][]models.Product
	updates     []priceUpdate

	// beforeInsert runs inside BulkInsert before the uniqueness check.
	beforeInsert func(s *fakeStore)
	insertErr    error
}

type priceUpdate struct {
	ID      uint
	Price   decimal.Decimal
	InStock bool
	At      time.Time
}

func (s *fakeStore) seed(products ...models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.addLocked(p)
	}
}

func (s *fakeStore) addLocked(p models.Product) {
	s.nextID++
	p.ID = s.nextID
	s.products = append(s.products, p)
}

func (s *fakeStore) hasLocked(url string) bool {
	for _, p := range s.products {
		if p.URL == url {
			return true
		}
	}
	return false
}

func (s *fakeStore) ExistingURLs(_ context.Context, urls []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, u := range urls {
		if s.hasLocked(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeStore) BulkInsert(_ context.Context, products []models.Product) error {
	if s.beforeInsert != nil {
		hook := s.beforeInsert
		s.beforeInsert = nil
		hook(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkCalls = append(s.bulkCalls, products)
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, p := range products {
		if s.hasLocked(p.URL) {
			return fmt.Errorf("%w: UNIQUE constraint failed: products.url", repositories.ErrDuplicateURL)
		}
	}
	for _, p := range products {
		s.addLocked(p)
	}
	return nil
}

func (s *fakeStore) UpsertByURL(_ context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls = append(s.upsertCalls, products)
	for _, p := range products {
		replaced := false
		for i := range s.products {
			if s.products[i].URL == p.URL {
				p.ID = s.products[i].ID
				s.products[i] = p
				replaced = true
			}
		}
		if !replaced {
			s.addLocked(p)
		}
	}
	return nil
}

func (s *fakeStore) WithURL(_ context.Context, afterID uint, limit int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]models.Product(nil), s.products...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []models.Product
	for _, p := range sorted {
		if p.ID > afterID && p.URL != "" {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) CountWithURL(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.products {
		if p.URL != "" {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpdatePriceStock(_ context.Context, id uint, price decimal.Decimal, inStock bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, priceUpdate{ID: id, Price: price, InStock: inStock, At: at})
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Price = price
			s.products[i].InStock = inStock
			s.products[i].UpdatedAt = at
			s.products[i].FetchedAt = at
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *fakeStore) byURL(url string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.URL == url {
			return p, true
		}
	}
	return models.Product{}, false
}

// fakeRuns keeps refresh checkpoints in memory.
type fakeRuns struct {
	runs     []*models.RefreshRun
	advanced int
	released int
}

func (f *fakeRuns) Open(_ context.Context) (*models.RefreshRun, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if !f.runs[i].Finished() {
			cp := *f.runs[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRuns) Start(_ context.Context, run *models.RefreshRun) error {
	cp := *run
	f.runs = append(f.runs, &cp)
	return nil
}

func (f *fakeRuns) save(run *models.RefreshRun) {
	for i, r := range f.runs {
		if r.ID == run.ID {
			cp := *run
			f.runs[i] = &cp
		}
	}
}

func (f *fakeRuns) Advance(_ context.Context, run *models.RefreshRun) error {
	f.advanced++
	run.UpdatedAt = fixedNow
	f.save(run)
	return nil
}

func (f *fakeRuns) Release(_ context.Context, run *models.RefreshRun) error {
	f.released++
	run.UpdatedAt = time.Time{}
	f.save(run)
	return nil
}

func (f *fakeRuns) Finish(_ context.Context, run *models.RefreshRun, at time.Time) error {
	run.FinishedAt = &at
	f.save(run)
	return nil
}

// mockExtractor is a testify mock of the extraction client.
type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Submit(ctx context.Context, urls []string, spec extract.PromptSpec) (string, error) {
	args := m.Called(ctx, urls, spec)
	return args.String(0), args.Error(1)
}

func (m *mockExtractor) AwaitCompletion(ctx context.Context, jobID string, pollInterval, timeout time.Duration) (*extract.Result, error) {
	args := m.Called(ctx, jobID, pollInterval, timeout)
	res, _ := args.Get(0).(*extract.Result)
	return res, args.Error(1)
}

func (m *mockExtractor) ExtractOne(ctx context.Context, url string, spec extract.PromptSpec, pollInterval, timeout time.Duration) (extract.Record, error) {
	args := m.Called(ctx, url, spec, pollInterval, timeout)
	rec, _ := args.Get(0).(extract.Record)
	return rec, args.Error(1)
}

// recordingArchive captures archived payloads.
type recordingArchive struct {
	files map[string][]byte
}

func (a *recordingArchive) Put(_ context.Context, path string, content []byte) error {
	if a.files == nil {
		a.files = map[string][]byte{}
	}
	a.files[path] = content
	return nil
}

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func gpu(url string, price int64) map[string]any {
	return map[string]any{
		"url":            url,
		"brand":          "ASUS",
		"product_title":  "TUF Gaming RTX 4070 " + url,
		"family":         "TUF Gaming",
		"memory_size_gb": 12,
		"cooler_type":    "triple",
		"price":          price,
		"in_stock":       true,
	}
}

func result(jobID string, items ...any) *extract.Result {
	recs := make([]extract.Record, len(items))
	for i, it := range items {
		recs[i] = extract.RecordOf(it)
	}
	return &extract.Result{JobID: jobID, Records: recs, Raw: []byte(`[]`)}
}

func stored(url string, price int64, inStock bool) models.Product {
	return models.Product{
		URL:          url,
		Brand:        "MSI",
		ProductTitle: "Gaming X Trio",
		Family:       "Gaming X Trio",
		Price:        decimal.NewFromInt(price),
		InStock:      inStock,
		Retailer:     "newegg.com",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
