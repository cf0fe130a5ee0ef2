package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/app/repositories"
	"github.com/solestore/solestore/app/services"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/response"
)

// Catalog is what the product handlers need from the service layer.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Query(ctx context.Context, f services.Filter) ([]models.Product, error)
	Seed(ctx context.Context, out io.Writer) error
}

const (
	msgNoProducts       = "No products found"
	msgProductNotFound  = "Product not found."
	msgConnectionFailed = "Database connection failed"
	msgListFailed       = "Failed to retrieve products"
	msgGetFailed        = "Failed to retrieve product"
)

type ProductController struct {
	catalog Catalog
	now     func() time.Time
}

func NewProductController(catalog Catalog) *ProductController {
	return &ProductController{catalog: catalog, now: time.Now}
}

// Read lists every product. An empty catalog is a 404.
func (c *ProductController) Read(w http.ResponseWriter, r *http.Request) {
	products, err := c.catalog.List(r.Context())
	if err != nil {
		c.storeError(w, r, err, msgListFailed)
		return
	}
	if len(products) == 0 {
		logger.WithCtx(r.Context()).Info("catalog is empty")
		response.NotFound(w, msgNoProducts)
		return
	}
	response.OK(w, products)
}

// ReadSingle looks up ?id=. A request without the parameter gets a bare 400.
func (c *ProductController) ReadSingle(w http.ResponseWriter, r *http.Request) {
	ids, ok := r.URL.Query()["id"]
	if !ok || len(ids) == 0 {
		response.Empty(w, http.StatusBadRequest)
		return
	}
	c.show(w, r, ids[0])
}

// Show is the path-parameter form of ReadSingle.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	c.show(w, r, chi.URLParam(r, "id"))
}

func (c *ProductController) show(w http.ResponseWriter, r *http.Request, id string) {
	product, err := c.catalog.Get(r.Context(), id)
	if errors.Is(err, repositories.ErrProductNotFound) {
		logger.WithCtx(r.Context()).Info("product not found", "id", id)
		response.NotFound(w, msgProductNotFound)
		return
	}
	if err != nil {
		c.storeError(w, r, err, msgGetFailed)
		return
	}
	response.OK(w, product)
}

// Index filters and sorts the catalog. Unlike Read, no match is a 200 with [].
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	filter, err := services.ParseFilter(r.URL.Query())
	if err != nil {
		response.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := c.catalog.Query(r.Context(), filter)
	if err != nil {
		c.storeError(w, r, err, msgListFailed)
		return
	}
	response.OK(w, products)
}

// Init reseeds the store and answers with the seeding log as plain text.
func (c *ProductController) Init(w http.ResponseWriter, r *http.Request) {
	var out bytes.Buffer
	if err := c.catalog.Seed(r.Context(), &out); err != nil {
		logger.WithCtx(r.Context()).Error("seeding failed", "error", err)
		out.WriteString("Failed to initialize the database.\n")
		response.Text(w, http.StatusInternalServerError, out.String())
		return
	}
	response.Text(w, http.StatusOK, out.String())
}

type statusBody struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Status is a liveness probe that never touches the store.
func (c *ProductController) Status(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, statusBody{
		Status: "API is working",
		Time:   c.now().Format("2006-01-02 15:04:05"),
	})
}

type welcomeBody struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// Welcome answers every unmatched path with the endpoint directory.
func (c *ProductController) Welcome(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, welcomeBody{
		Message: "Welcome to the Shoe Shop API",
		Endpoints: map[string]string{
			"/api/products/read.php":                "Get all products",
			"/api/products/read_single.php?id={id}": "Get a single product by ID",
			"/api/products":                         "Filter and sort products (category, color, price, sortBy)",
			"/api/products/{id}":                    "Get a single product by ID",
			"/api/status":                           "Check that the API is running",
			"/init":                                 "Initialize the database with sample products",
		},
	})
}

func (c *ProductController) storeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, repositories.ErrStoreUnavailable) {
		msg = msgConnectionFailed
	}
	logger.WithCtx(r.Context()).Error("catalog read failed", "error", err)
	response.Error(w, msg)
}
