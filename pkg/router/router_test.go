package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func tag(value string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupMiddlewareOrder(t *testing.T) {
	r := router.New()
	api := r.Group("/api", tag("api"))
	cron := api.Group("cron", tag("cron"))
	cron.Get("/refresh-prices", "cron.refresh", ok, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cron/refresh-prices", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "cron", "route"}, rec.Header().Values("X-Chain"))
}

func TestMatchRegistersEveryMethod(t *testing.T) {
	r := router.New()
	r.Group("/api").Match([]string{http.MethodGet, http.MethodPost}, "/cron/refresh-prices", "cron.refresh", ok)

	for _, m := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(m, "/api/cron/refresh-prices", nil))
		assert.Equal(t, http.StatusOK, rec.Code, m)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cron/refresh-prices", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutesAreSorted(t *testing.T) {
	r := router.New()
	r.Post("/api/products/ingest", "products.ingest", ok)
	r.Get("/api/products", "products.index", ok)
	r.HandleFunc("/metrics", ok)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, router.RouteInfo{Method: "GET", Path: "/api/products", Name: "products.index"}, routes[0])
	assert.Equal(t, "/api/products/ingest", routes[1].Path)
	assert.Equal(t, router.RouteInfo{Method: "ANY", Path: "/metrics"}, routes[2])
}

func TestURL(t *testing.T) {
	r := router.New()
	r.Group("/api").Get("/products/{id}", "products.show", ok)

	u, err := r.URL("products.show", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/products/7", u)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}
