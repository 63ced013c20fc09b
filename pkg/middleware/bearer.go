package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/response"
)

// BearerToken rejects requests whose "Authorization: Bearer <token>" does not
// match secret(). An empty secret rejects everything, so an unconfigured
// deployment never exposes the protected routes.
//
//	cron := api.Group("/cron", middleware.BearerToken(config.CronSecret))
func BearerToken(secret func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			want := secret()
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

			if want == "" || !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(want)) != 1 {
				logger.WithCtx(r.Context()).Warn("bearer token rejected", "path", r.URL.Path)
				response.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
