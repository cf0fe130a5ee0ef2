package routes

import (
	"github.com/solestore/solestore/app/controllers"
	"github.com/solestore/solestore/pkg/metrics"
	"github.com/solestore/solestore/pkg/router"
)

// RegisterAPI mounts the catalog endpoints. The .php paths are the ones the
// storefront already calls.
func RegisterAPI(r *router.Router, products *controllers.ProductController) {
	api := r.Group("/api")
	api.Get("/products/read.php", "products.read", products.Read)
	api.Get("/products/read_single.php", "products.read_single", products.ReadSingle)
	api.Get("/products", "products.index", products.Index)
	api.Get("/products/{id}", "products.show", products.Show)
	api.Get("/status", "status", products.Status)

	r.Any("/init", "init", products.Init)
	r.Get("/metrics", "metrics", metrics.Handler())

	r.NotFound(products.Welcome)
	r.MethodNotAllowed(products.Welcome)
}
