package routes

import (
	"net/http"

	"github.com/shashiranjanraj/gpucatalog/app/controllers"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
	"github.com/shashiranjanraj/gpucatalog/pkg/middleware"
	"github.com/shashiranjanraj/gpucatalog/pkg/router"
)

// Handlers is everything the route table mounts.
type Handlers struct {
	Products *controllers.ProductController
	Ingest   *controllers.IngestController
	Cron     *controllers.CronController
	Health   *controllers.HealthController
	GraphQL  http.HandlerFunc

	// CronSecret is read on every request so a rotated secret applies
	// without a restart.
	CronSecret func() string
}

func RegisterAPI(r *router.Router, h Handlers) {
	r.Get("/health", "health", ctx.Wrap(h.Health.Show))
	r.Match([]string{http.MethodGet, http.MethodPost}, "/graphql", "graphql", h.GraphQL)

	api := r.Group("/api")
	api.Get("/products", "products.index", ctx.Wrap(h.Products.Index))
	api.Get("/products/filters", "products.filters", ctx.Wrap(h.Products.Filters))
	api.Get("/products/{id}", "products.show", ctx.Wrap(h.Products.Show))
	api.Post("/products/ingest", "products.ingest", ctx.Wrap(h.Ingest.Ingest))

	protected := api.Group("", middleware.BearerToken(h.CronSecret))
	protected.Post("/products/reingest", "products.reingest", ctx.Wrap(h.Ingest.Reingest))
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/cron/refresh-prices", "cron.refresh-prices",
		ctx.Wrap(h.Cron.RefreshPrices))
}
