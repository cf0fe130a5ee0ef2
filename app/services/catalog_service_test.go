package services_test

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/app/repositories"
	"github.com/solestore/solestore/app/services"
	"github.com/solestore/solestore/database/seeders"
	"github.com/solestore/solestore/pkg/cache"
	"github.com/solestore/solestore/pkg/collection"
	"github.com/solestore/solestore/pkg/database"
)

type countingStore struct {
	data    map[string][]byte
	deleted []string
}

func (c *countingStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrMiss
}

func (c *countingStore) Set(_ context.Context, key string, v []byte, _ time.Duration) error {
	c.data[key] = v
	return nil
}

func (c *countingStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *countingStore) Driver() string { return "test" }

func newService(t *testing.T, store cache.Store) *services.CatalogService {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "products.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return services.NewCatalogService(db, services.CatalogOptions{Cache: store, TTL: time.Minute, Timeout: 5 * time.Second})
}

func names(ps []models.Product) []string {
	return collection.Map(ps, func(p models.Product) string { return p.Name })
}

func TestSeedThenList(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	var log bytes.Buffer
	require.NoError(t, svc.Seed(ctx, &log))
	assert.Contains(t, log.String(), "Products count in database: 3")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "Red Runner", all[0].Name)
	assert.Equal(t, 129.99, all[0].Price)

	_, err = svc.Get(ctx, "99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestListUsesCacheAndSeedInvalidates(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{data: map[string][]byte{}}
	svc := newService(t, store)
	require.NoError(t, svc.Seed(ctx, &bytes.Buffer{}))

	_, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, store.data, "products:all")

	_, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Contains(t, store.data, "products:id:1")

	require.NoError(t, svc.Seed(ctx, &bytes.Buffer{}))
	assert.NotContains(t, store.data, "products:all")
	assert.NotContains(t, store.data, "products:id:1")
}

func TestParseFilter(t *testing.T) {
	f, err := services.ParseFilter(url.Values{"category": {"running"}, "color": {"all"}, "price": {"100-150"}, "sortBy": {"name"}})
	require.NoError(t, err)
	assert.Equal(t, services.Filter{Category: "running", Price: "100-150", SortBy: "name"}, f)

	_, err = services.ParseFilter(url.Values{"price": {"cheap"}})
	assert.ErrorIs(t, err, services.ErrInvalidFilter)

	_, err = services.ParseFilter(url.Values{"sortBy": {"rating"}})
	assert.ErrorIs(t, err, services.ErrInvalidFilter)
}

func TestFilterApply(t *testing.T) {
	all := seeders.SampleProducts()

	cases := []struct {
		name   string
		filter services.Filter
		want   []string
	}{
		{"none", services.Filter{}, []string{"Red Runner", "Blue Sprinter", "Green Trail"}},
		{"category", services.Filter{Category: "running"}, []string{"Red Runner", "Blue Sprinter"}},
		{"color", services.Filter{Color: "green"}, []string{"Green Trail"}},
		{"under 100", services.Filter{Price: services.PriceUnder100}, []string{}},
		{"100 to 150", services.Filter{Price: services.Price100To150}, []string{"Red Runner", "Blue Sprinter"}},
		{"over 150", services.Filter{Price: services.PriceOver150}, []string{"Green Trail"}},
		{"newest", services.Filter{SortBy: services.SortNewest}, []string{"Green Trail", "Blue Sprinter", "Red Runner"}},
		{"price high", services.Filter{SortBy: services.SortPriceHigh}, []string{"Green Trail", "Blue Sprinter", "Red Runner"}},
		{"price low", services.Filter{SortBy: services.SortPriceLow}, []string{"Red Runner", "Blue Sprinter", "Green Trail"}},
		{"name", services.Filter{SortBy: services.SortName}, []string{"Blue Sprinter", "Green Trail", "Red Runner"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names(tc.filter.Apply(all)))
		})
	}

	assert.Equal(t, "1", all[0].ID, "Apply must not reorder its input")
}

func TestQueryEmptyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	require.NoError(t, svc.Seed(ctx, &bytes.Buffer{}))

	got, err := svc.Query(ctx, services.Filter{Category: "sandals"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
