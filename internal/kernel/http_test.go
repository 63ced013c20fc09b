package kernel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/internal/bootstrap"
	"github.com/shashiranjanraj/gpucatalog/internal/kernel"
	"github.com/shashiranjanraj/gpucatalog/pkg/database"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

func newKernel(t *testing.T, perMinute int) *kernel.HTTP {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)

	c := bootstrap.Wire(logger.Discard(), db, nil, nil, extract.New("http://127.0.0.1:1", "test-key"))
	t.Cleanup(func() { _ = c.Close() })
	_, err = c.Migrator().Run(context.Background())
	require.NoError(t, err)

	h, err := c.Handlers()
	require.NoError(t, err)
	k := kernel.NewHTTP(h, kernel.DefaultOptions(perMinute))
	t.Cleanup(k.Close)
	return k
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestKernelServesAPI(t *testing.T) {
	h := newKernel(t, 0).Handler()

	rec := get(h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = get(h, "/api/products")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":0`)

	rec = get(h, "/api/cron/refresh-prices")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gpucatalog_")
}

func TestKernelRateLimits(t *testing.T) {
	h := newKernel(t, 2).Handler()

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(h, "/health").Code)

	rec := get(h, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouteTable(t *testing.T) {
	var names []string
	for _, ri := range kernel.RouteTable() {
		names = append(names, ri.Method+" "+ri.Path)
	}
	assert.Contains(t, names, "GET /api/products")
	assert.Contains(t, names, "GET /api/products/{id}")
	assert.Contains(t, names, "POST /api/products/ingest")
	assert.Contains(t, names, "POST /api/products/reingest")
	assert.Contains(t, names, "GET /api/cron/refresh-prices")
	assert.Contains(t, names, "POST /graphql")
	assert.Contains(t, names, "ANY /metrics")
}
