package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/app/controllers"
	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/app/services"
	"github.com/shashiranjanraj/gpucatalog/database/migrations"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
	"github.com/shashiranjanraj/gpucatalog/pkg/database"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/migration"
)

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

// ─── products ────────────────────────────────────────────────────────────────

func productRouter(t *testing.T) (http.Handler, *repositories.ProductRepository) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = migration.New(db, migrations.All()).WithLogger(logger.Discard()).Run(context.Background())
	require.NoError(t, err)

	repo := repositories.NewProductRepository(db)
	pc := controllers.NewProductController(services.NewCatalog(repo, nil, time.Minute))

	r := chi.NewRouter()
	r.Get("/api/products", ctx.Wrap(pc.Index))
	r.Get("/api/products/filters", ctx.Wrap(pc.Filters))
	r.Get("/api/products/{id}", ctx.Wrap(pc.Show))
	return r, repo
}

func gpu(url, brand string, price string, inStock bool) models.Product {
	return models.Product{
		URL:             url,
		Brand:           brand,
		ProductTitle:    brand + " GeForce RTX 4070",
		Family:          models.DefaultFamily,
		MemorySizeGB:    12,
		CoolerType:      models.CoolerDual,
		SpecialFeatures: "None",
		Price:           decimal.RequireFromString(price),
		InStock:         inStock,
		Retailer:        "newegg.com",
		FetchedAt:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestProducts_IndexFiltersAndPaginates(t *testing.T) {
	h, repo := productRouter(t)
	require.NoError(t, repo.BulkInsert(context.Background(), []models.Product{
		gpu("https://www.newegg.com/p/1", "ASUS", "649.99", true),
		gpu("https://www.newegg.com/p/2", "MSI", "599.99", false),
		gpu("https://www.newegg.com/p/3", "ASUS", "579.00", true),
	}))

	rec, body := do(t, h, http.MethodGet, "/api/products?brand=ASUS&in_stock=true&sort=price&order=asc&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].([]any)
	require.Len(t, data, 1)
	first := data[0].(map[string]any)
	assert.Equal(t, "https://www.newegg.com/p/3", first["url"])
	assert.Equal(t, "579", first["price"])

	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 2, meta["total"])
	assert.EqualValues(t, 2, meta["last_page"])
}

func TestProducts_IndexEmptyIsArray(t *testing.T) {
	h, _ := productRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestProducts_IndexRejectsBadQuery(t *testing.T) {
	h, _ := productRouter(t)

	for _, q := range []string{"sort=rating", "order=up", "min_price=cheap", "page=two"} {
		rec, body := do(t, h, http.MethodGet, "/api/products?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, false, body["success"], q)
	}
}

func TestProducts_ShowAndMissing(t *testing.T) {
	h, repo := productRouter(t)
	require.NoError(t, repo.BulkInsert(context.Background(), []models.Product{
		gpu("https://www.newegg.com/p/1", "ZOTAC", "549.99", true),
	}))

	rec, body := do(t, h, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ZOTAC", body["data"].(map[string]any)["brand"])
	assert.NotContains(t, rec.Body.String(), "RawData")

	rec, _ = do(t, h, http.MethodGet, "/api/products/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/products/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_Filters(t *testing.T) {
	h, repo := productRouter(t)
	require.NoError(t, repo.BulkInsert(context.Background(), []models.Product{
		gpu("https://www.newegg.com/p/1", "ASUS", "649.99", true),
		gpu("https://www.newegg.com/p/2", "MSI", "599.99", false),
	}))

	rec, body := do(t, h, http.MethodGet, "/api/products/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.ElementsMatch(t, []any{"ASUS", "MSI"}, data["brands"])
	assert.Equal(t, "599.99", data["min_price"])
}

// ─── ingest ──────────────────────────────────────────────────────────────────

type stubIngester struct {
	report   services.IngestReport
	got      []string
	deadline bool
	reingest bool
}

func (s *stubIngester) Ingest(c context.Context, urls []string) services.IngestReport {
	s.got = urls
	_, s.deadline = c.Deadline()
	return s.report
}

func (s *stubIngester) Reingest(c context.Context, urls []string) services.IngestReport {
	s.reingest = true
	return s.Ingest(c, urls)
}

func ingestRouter(stub *stubIngester) http.Handler {
	ic := controllers.NewIngestController(stub, time.Minute)
	r := chi.NewRouter()
	r.Post("/api/products/ingest", ctx.Wrap(ic.Ingest))
	r.Post("/api/products/reingest", ctx.Wrap(ic.Reingest))
	return r
}

func TestIngest_SuccessShape(t *testing.T) {
	stub := &stubIngester{report: services.IngestReport{
		Success:    true,
		Message:    "Added 2 product(s)",
		Added:      2,
		Duplicates: []string{"https://a.example/old"},
		JobID:      "job-9",
	}}

	rec, body := do(t, ingestRouter(stub), http.MethodPost, "/api/products/ingest",
		`{"urls":["https://a.example/1","https://a.example/2","https://a.example/old"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["productsAdded"])
	assert.EqualValues(t, 1, body["duplicateCount"])
	assert.Equal(t, []any{"https://a.example/old"}, body["duplicateUrls"])
	assert.Equal(t, "job-9", body["jobId"])
	assert.Len(t, stub.got, 3)
	assert.True(t, stub.deadline, "ingest runs under a deadline")
}

func TestIngest_BodyValidation(t *testing.T) {
	stub := &stubIngester{}
	h := ingestRouter(stub)

	for _, body := range []string{`{}`, `{"urls":[]}`, `not json`} {
		rec, out := do(t, h, http.MethodPost, "/api/products/ingest", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, false, out["success"], body)
	}
	assert.Nil(t, stub.got, "service is not called for a bad body")
}

func TestIngest_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		rep  services.IngestReport
		want int
	}{
		{"full success", services.IngestReport{Success: true, Added: 1}, http.StatusOK},
		{"partial", services.IngestReport{Success: true, Added: 1, Errors: []string{"x: bad"}}, http.StatusMultiStatus},
		{"validation", services.IngestReport{Err: &services.ValidationError{Message: "bad url"}}, http.StatusBadRequest},
		{"all duplicates", services.IngestReport{Err: services.ErrAllDuplicates}, http.StatusBadRequest},
		{"nothing mapped", services.IngestReport{Err: services.ErrNothingMapped}, http.StatusUnprocessableEntity},
		{"store", services.IngestReport{Err: &services.StoreError{Op: "bulk insert", Err: errors.New("disk full")}}, http.StatusInternalServerError},
		{"timeout", services.IngestReport{Err: context.DeadlineExceeded}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, controllers.IngestStatus(tc.rep))

			rec, _ := do(t, ingestRouter(&stubIngester{report: tc.rep}), http.MethodPost,
				"/api/products/ingest", `{"urls":["https://a.example/1"]}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestReingest_UsesReingestPath(t *testing.T) {
	stub := &stubIngester{report: services.IngestReport{Success: true, Added: 1}}

	rec, _ := do(t, ingestRouter(stub), http.MethodPost, "/api/products/reingest", `{"urls":["https://a.example/1"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stub.reingest)
}

// ─── cron ────────────────────────────────────────────────────────────────────

type stubRefresher struct {
	rep services.RefreshReport
	err error
}

func (s stubRefresher) RefreshAll(context.Context) (services.RefreshReport, error) {
	return s.rep, s.err
}

func TestCron_RefreshPrices(t *testing.T) {
	cc := controllers.NewCronController(stubRefresher{rep: services.RefreshReport{
		RunID: "run-1", Updated: 2, Total: 5, Errors: []string{"https://a/3: job failed"},
	}})
	r := chi.NewRouter()
	r.Post("/refresh", ctx.Wrap(cc.RefreshPrices))

	rec, body := do(t, r, http.MethodPost, "/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["updated"])
	assert.EqualValues(t, 5, body["total"])
	assert.Len(t, body["errors"], 1)
}

func TestCron_RefreshPricesFailure(t *testing.T) {
	cc := controllers.NewCronController(stubRefresher{err: errors.New("store load products failed")})
	r := chi.NewRouter()
	r.Post("/refresh", ctx.Wrap(cc.RefreshPrices))

	rec, body := do(t, r, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "load products")
}

func TestCron_RefreshPricesWhileAnotherRunIsLive(t *testing.T) {
	cc := controllers.NewCronController(stubRefresher{
		rep: services.RefreshReport{RunID: "run-live", Updated: 3, Total: 9},
		err: services.ErrRefreshInProgress,
	})
	r := chi.NewRouter()
	r.Post("/refresh", ctx.Wrap(cc.RefreshPrices))

	rec, body := do(t, r, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "run-live", body["runId"])
}

// ─── health ──────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	healthy := controllers.NewHealthController(map[string]controllers.Check{
		"database": func(context.Context) error { return nil },
	})
	rec, body := do(t, ctx.Wrap(healthy.Show), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	sick := controllers.NewHealthController(map[string]controllers.Check{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	})
	rec, body = do(t, ctx.Wrap(sick.Show), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "connection refused", body["checks"].(map[string]any)["cache"])
}

type stubRuns struct {
	run *models.RefreshRun
	err error
}

func (s stubRuns) Latest(context.Context) (*models.RefreshRun, error) {
	return s.run, s.err
}

func TestHealth_ReportsLatestRefreshRun(t *testing.T) {
	started := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	hc := controllers.NewHealthController(map[string]controllers.Check{
		"database": func(context.Context) error { return nil },
	}).WithRefreshRuns(stubRuns{run: &models.RefreshRun{ID: "run-9", StartedAt: started, Updated: 4, Total: 10}})

	rec, body := do(t, ctx.Wrap(hc.Show), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	last, ok := body["lastRefresh"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-9", last["runId"])
	assert.Equal(t, true, last["running"])
	assert.EqualValues(t, 4, last["updated"])

	none := controllers.NewHealthController(nil).WithRefreshRuns(stubRuns{err: repositories.ErrNotFound})
	rec, body = do(t, ctx.Wrap(none.Show), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "lastRefresh")
}
