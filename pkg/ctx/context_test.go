package ctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/shashiranjanraj/gpucatalog/pkg/ctx"
)

func TestWrapAndJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]any{"ok": true})
		assert.Equal(t, http.StatusOK, c.WrittenStatus())
	})(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]any{"id": 1})
	})(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": float64(1)}, body["data"])
}

func TestParamUint(t *testing.T) {
	r := chi.NewRouter()
	var (
		got uint
		ok  bool
	)
	r.Get("/products/{id}", appctx.Wrap(func(c *appctx.Context) {
		got, ok = c.ParamUint("id")
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/42", nil))
	assert.True(t, ok)
	assert.Equal(t, uint(42), got)

	for _, bad := range []string{"0", "-1", "abc"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/"+bad, nil))
		assert.False(t, ok, bad)
	}
}

func TestBindJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"urls":["https://a.example/1"]}`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			URLs []string `json:"urls" validate:"required,min=1"`
		}
		require.True(t, c.BindJSON(&input))
		assert.Equal(t, []string{"https://a.example/1"}, input.URLs)
	})(rec, req)
}

func TestBindJSONInvalid(t *testing.T) {
	cases := map[string]string{
		"validation": `{"urls":[]}`,
		"malformed":  `{"urls":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

			appctx.Wrap(func(c *appctx.Context) {
				var input struct {
					URLs []string `json:"urls" validate:"required"`
				}
				assert.False(t, c.BindJSON(&input))
			})(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

func TestBindQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?brand=MSI&page=2&in_stock=true", nil)

	appctx.Wrap(func(c *appctx.Context) {
		var q struct {
			Brand   string `query:"brand"`
			Page    int    `query:"page" validate:"gte=0"`
			InStock *bool  `query:"in_stock"`
			IsOC    *bool  `query:"oc"`
		}
		require.True(t, c.BindQuery(&q))
		assert.Equal(t, "MSI", q.Brand)
		assert.Equal(t, 2, q.Page)
		require.NotNil(t, q.InStock)
		assert.True(t, *q.InStock)
		assert.Nil(t, q.IsOC)
	})(rec, req)
}

func TestBindQueryRejectsBadNumber(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?page=two", nil)

	appctx.Wrap(func(c *appctx.Context) {
		var q struct {
			Page int `query:"page"`
		}
		assert.False(t, c.BindQuery(&q))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", appctx.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", appctx.ClientIP(req))
}

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	appctx.Wrap(func(c *appctx.Context) {
		c.NotFound("Product not found")
	})(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found")
}
