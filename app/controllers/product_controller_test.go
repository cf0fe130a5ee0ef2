package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/app/repositories"
	"github.com/solestore/solestore/app/services"
)

type fakeCatalog struct {
	products []models.Product
	err      error
	seedLog  string
}

func (f *fakeCatalog) List(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) Get(_ context.Context, id string) (models.Product, error) {
	if f.err != nil {
		return models.Product{}, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, repositories.ErrProductNotFound
}

func (f *fakeCatalog) Query(_ context.Context, fl services.Filter) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fl.Apply(f.products), nil
}

func (f *fakeCatalog) Seed(_ context.Context, out io.Writer) error {
	_, _ = io.WriteString(out, f.seedLog)
	return f.err
}

func serve(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReadStoreErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unreachable", fmt.Errorf("%w: dial", repositories.ErrStoreUnavailable), `{"message":"Database connection failed"}`},
		{"query", errors.New("no such table: products"), `{"message":"Failed to retrieve products"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewProductController(&fakeCatalog{err: tc.err})
			rec := serve(c.Read, "/api/products/read.php")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
			assert.Equal(t, "application/json; charset=UTF-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestReadEmpty(t *testing.T) {
	rec := serve(NewProductController(&fakeCatalog{}).Read, "/api/products/read.php")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"No products found"}`, rec.Body.String())
}

func TestReadSingle(t *testing.T) {
	c := NewProductController(&fakeCatalog{products: []models.Product{{ID: "", Name: "Blank"}, {ID: "7", Name: "Seven"}}})

	rec := serve(c.ReadSingle, "/api/products/read_single.php?id=7")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Seven"`)

	rec = serve(c.ReadSingle, "/api/products/read_single.php")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(c.ReadSingle, "/api/products/read_single.php?id=")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Blank"`)

	rec = serve(c.ReadSingle, "/api/products/read_single.php?id=8")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Product not found."}`, rec.Body.String())
}

func TestReadSingleStoreDown(t *testing.T) {
	c := NewProductController(&fakeCatalog{err: repositories.ErrStoreUnavailable})
	rec := serve(c.ReadSingle, "/api/products/read_single.php?id=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Database connection failed"}`, rec.Body.String())
}

func TestIndexRejectsUnknownSort(t *testing.T) {
	rec := serve(NewProductController(&fakeCatalog{}).Index, "/api/products?sortBy=rating")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"invalid filter: unknown sort \"rating\""}`, rec.Body.String())
}

func TestStatusUsesClock(t *testing.T) {
	c := NewProductController(&fakeCatalog{})
	c.now = func() time.Time { return time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC) }

	rec := serve(c.Status, "/api/status")
	assert.JSONEq(t, `{"status":"API is working","time":"2025-03-01 09:05:07"}`, rec.Body.String())
}

func TestInit(t *testing.T) {
	ok := NewProductController(&fakeCatalog{seedLog: "Database connection: SUCCESS\n"})
	rec := serve(ok.Init, "/init")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Database connection: SUCCESS\n", rec.Body.String())

	failed := NewProductController(&fakeCatalog{seedLog: "Database connection: FAILED\n", err: errors.New("down")})
	rec = serve(failed.Init, "/init")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database connection: FAILED")
}
