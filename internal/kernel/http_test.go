package kernel

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solestore/solestore/app/services"
	_ "github.com/solestore/solestore/database/migrations"
	"github.com/solestore/solestore/pkg/database"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/migration"
	"github.com/solestore/solestore/pkg/router"
	"github.com/solestore/solestore/pkg/testkit"
)

func newCatalog(t *testing.T, seed bool) *services.CatalogService {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "products.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	svc := services.NewCatalogService(db, services.CatalogOptions{Timeout: 5 * time.Second})
	if seed {
		require.NoError(t, svc.Seed(ctx, &bytes.Buffer{}))
	}
	return svc
}

func newKernel(t *testing.T, seed bool) *HTTPKernel {
	return NewHTTPKernel(newCatalog(t, seed), Options{Logger: logger.Discard(), RequestTimeout: 10 * time.Second})
}

func TestScenarios(t *testing.T) {
	testkit.RunDir(t, newKernel(t, true).Handler(), "testdata")
}

func TestUnmigratedStore(t *testing.T) {
	k := NewHTTPKernel(newCatalog(t, false), Options{Logger: logger.Discard()})

	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/read.php", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to retrieve products"}`, rec.Body.String())
}

func TestEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "products.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = migration.New(db, nil).Run(ctx)
	require.NoError(t, err)

	k := NewHTTPKernel(services.NewCatalogService(db, services.CatalogOptions{}), Options{Logger: logger.Discard()})

	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/read.php", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"No products found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	k := newKernel(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	k := newKernel(t, true)
	h := k.Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/read.php", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `solestore_http_requests_total{method="GET",route="/api/products/read.php",status="200"}`)
}

func TestRateLimit(t *testing.T) {
	k := NewHTTPKernel(newCatalog(t, true), Options{Logger: logger.Discard(), RateLimit: 1})
	h := k.Handler()

	call := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())
}

func TestRouteTable(t *testing.T) {
	var named []string
	for _, r := range newKernel(t, false).Routes() {
		if r.Name != "" {
			named = append(named, r.Name)
		}
	}
	assert.ElementsMatch(t, []string{
		"products.read", "products.read_single", "products.index", "products.show",
		"status", "init", "metrics",
	}, named)

	routes := newKernel(t, false).Routes()
	assert.Contains(t, routes, router.Route{Method: router.MethodAny, Path: "/init", Name: "init"})
}
