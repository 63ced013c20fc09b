// Package kernel builds the application's HTTP handler: the global
// middleware stack, the metrics endpoint and the API route table.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/gpucatalog/app/routes"
	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
	"github.com/shashiranjanraj/gpucatalog/pkg/middleware"
	"github.com/shashiranjanraj/gpucatalog/pkg/reqid"
	"github.com/shashiranjanraj/gpucatalog/pkg/router"
)

// Options tunes the global middleware.
type Options struct {
	RateLimitPerMinute int
	CORS               middleware.CORSOptions
}

// DefaultOptions returns the options used by `serve`.
func DefaultOptions(perMinute int) Options {
	return Options{RateLimitPerMinute: perMinute, CORS: middleware.DefaultCORSOptions()}
}

// HTTP owns the router and the limiter's sweeper.
type HTTP struct {
	router *router.Router
	stop   chan struct{}
}

// NewHTTP mounts h behind the global middleware stack.
func NewHTTP(h routes.Handlers, opts Options) *HTTP {
	k := &HTTP{router: router.New(), stop: make(chan struct{})}
	r := k.router

	// Outermost first: metrics see total latency, recovery wraps everything
	// that may panic, and the logger needs the request id already set.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(opts.CORS))
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute, k.stop))
	}

	r.HandleFunc("/metrics", metrics.Handler())
	routes.RegisterAPI(r, h)
	return k
}

// Handler returns the root handler.
func (k *HTTP) Handler() http.Handler { return k.router.Handler() }

// Routes lists every mounted route.
func (k *HTTP) Routes() []router.RouteInfo { return k.router.Routes() }

// Close stops background middleware workers.
func (k *HTTP) Close() {
	select {
	case <-k.stop:
	default:
		close(k.stop)
	}
}

// RouteTable returns the API routes without wiring any dependencies, for
// listing only.
func RouteTable() []router.RouteInfo {
	r := router.New()
	r.HandleFunc("/metrics", metrics.Handler())
	routes.RegisterAPI(r, routes.Handlers{})
	return r.Routes()
}
