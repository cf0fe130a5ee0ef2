// Package kernel assembles the catalog HTTP handler: global middleware,
// then the routes.
package kernel

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/solestore/solestore/app/controllers"
	"github.com/solestore/solestore/app/routes"
	"github.com/solestore/solestore/pkg/metrics"
	"github.com/solestore/solestore/pkg/middleware"
	"github.com/solestore/solestore/pkg/reqid"
	"github.com/solestore/solestore/pkg/router"
)

// Options tune the middleware stack. Zero values disable the matching
// limit.
type Options struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	RateLimit      int // requests per minute per IP
}

// HTTPKernel owns the router and the rate limiter's sweep loop.
type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.RateLimiter
}

func NewHTTPKernel(catalog controllers.Catalog, opts Options) *HTTPKernel {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := router.New()
	limiter := middleware.NewRateLimiter(opts.RateLimit)

	// Outermost first: metrics see total latency, request ids exist before
	// anything logs, panics are caught below the logger.
	r.Use(metrics.Middleware())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery)
	if opts.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(opts.RequestTimeout))
	}
	r.Use(middleware.CORS())
	r.Use(limiter.Middleware)

	routes.RegisterAPI(r, controllers.NewProductController(catalog))

	return &HTTPKernel{router: r, limiter: limiter}
}

func (k *HTTPKernel) Handler() http.Handler {
	return k.router.Handler()
}

func (k *HTTPKernel) Routes() []router.Route {
	return k.router.Routes()
}

// Run does the kernel's background housekeeping until ctx is done.
func (k *HTTPKernel) Run(ctx context.Context) {
	k.limiter.Run(ctx)
}
