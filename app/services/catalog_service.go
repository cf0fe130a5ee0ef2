package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/app/repositories"
	_ "github.com/solestore/solestore/database/migrations"
	"github.com/solestore/solestore/database/seeders"
	"github.com/solestore/solestore/pkg/cache"
	"github.com/solestore/solestore/pkg/collection"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/migration"
)

// ErrInvalidFilter is returned by ParseFilter for an unknown price band or
// sort key.
var ErrInvalidFilter = errors.New("invalid filter")

const listCacheKey = "products:all"

func productCacheKey(id string) string { return "products:id:" + id }

// ── Filters ──

// Price bands, as offered by the storefront.
const (
	PriceUnder100 = "under-100"
	Price100To150 = "100-150"
	PriceOver150  = "over-150"
)

// Sort keys.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

// Filter narrows and orders a catalog query. Empty fields match everything;
// an empty SortBy keeps storage order.
type Filter struct {
	Category string
	Color    string
	Price    string
	SortBy   string
}

// ParseFilter reads category, color, price and sortBy from q. The value
// "all" is the same as leaving a filter out.
func ParseFilter(q url.Values) (Filter, error) {
	get := func(key string) string {
		v := strings.TrimSpace(q.Get(key))
		if v == "all" {
			return ""
		}
		return v
	}

	f := Filter{
		Category: get("category"),
		Color:    get("color"),
		Price:    get("price"),
		SortBy:   get("sortBy"),
	}

	switch f.Price {
	case "", PriceUnder100, Price100To150, PriceOver150:
	default:
		return Filter{}, fmt.Errorf("%w: unknown price band %q", ErrInvalidFilter, f.Price)
	}
	switch f.SortBy {
	case "", SortNewest, SortPriceLow, SortPriceHigh, SortName:
	default:
		return Filter{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, f.SortBy)
	}
	return f, nil
}

func (f Filter) match(p models.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Color != "" && p.Color != f.Color {
		return false
	}
	switch f.Price {
	case PriceUnder100:
		return p.Price < 100
	case Price100To150:
		return p.Price >= 100 && p.Price <= 150
	case PriceOver150:
		return p.Price > 150
	}
	return true
}

// Apply filters and sorts products. The input slice is not modified.
func (f Filter) Apply(products []models.Product) []models.Product {
	out := collection.Filter(products, f.match)

	switch f.SortBy {
	case SortPriceLow:
		collection.SortBy(out, func(a, b models.Product) bool { return a.Price < b.Price })
	case SortPriceHigh:
		collection.SortBy(out, func(a, b models.Product) bool { return a.Price > b.Price })
	case SortNewest:
		collection.SortBy(out, func(a, b models.Product) bool { return listingDate(a).After(listingDate(b)) })
	case SortName:
		collection.SortBy(out, func(a, b models.Product) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		})
	}
	return out
}

// listingDate parses the record date; unparseable dates sort as oldest.
func listingDate(p models.Product) time.Time {
	if t, err := time.Parse("2006-01-02", p.Date); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, p.Date); err == nil {
		return t
	}
	return time.Time{}
}

// ── Service ──

// CatalogService answers catalog reads and reseeds the store.
type CatalogService struct {
	db      *gorm.DB
	repo    *repositories.ProductRepository
	cache   cache.Store
	ttl     time.Duration
	timeout time.Duration
}

// CatalogOptions configures a CatalogService. A nil Cache disables caching;
// a zero Timeout leaves store calls bound only by the request context.
type CatalogOptions struct {
	Cache   cache.Store
	TTL     time.Duration
	Timeout time.Duration
}

func NewCatalogService(db *gorm.DB, opts CatalogOptions) *CatalogService {
	store := opts.Cache
	if store == nil {
		store = cache.Nop{}
	}
	return &CatalogService{
		db:      db,
		repo:    repositories.NewProductRepository(db),
		cache:   store,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
	}
}

func (s *CatalogService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns every product in storage order. The store is pinged first
// so an unreachable store surfaces as repositories.ErrStoreUnavailable.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		return nil, err
	}

	var products []models.Product
	if cache.Get(ctx, s.cache, listCacheKey, &products) {
		return products, nil
	}

	products, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	if err := cache.Set(ctx, s.cache, listCacheKey, products, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache set failed", "key", listCacheKey, "error", err)
	}
	return products, nil
}

// Get returns one product or repositories.ErrProductNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := productCacheKey(id)

	var product models.Product
	if cache.Get(ctx, s.cache, key, &product) {
		return product, nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	if err := cache.Set(ctx, s.cache, key, product, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache set failed", "key", key, "error", err)
	}
	return product, nil
}

// Query lists products matching f. Unlike List, an empty result is not an
// error.
func (s *CatalogService) Query(ctx context.Context, f Filter) ([]models.Product, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

// Create validates and stores one product.
func (s *CatalogService) Create(ctx context.Context, p *models.Product) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, listCacheKey)
	return nil
}

// Seed migrates the schema, replaces the catalog with the sample set and
// writes a plain-text log of every step to out.
func (s *CatalogService) Seed(ctx context.Context, out io.Writer) error {
	if _, err := migration.New(s.db, nil).Run(ctx); err != nil {
		return err
	}

	ids := []string{listCacheKey}
	if existing, err := s.repo.All(ctx); err == nil {
		for _, p := range existing {
			ids = append(ids, productCacheKey(p.ID))
		}
	}

	if err := seeders.RunAll(ctx, s.db, out); err != nil {
		return err
	}

	for _, p := range seeders.SampleProducts() {
		ids = append(ids, productCacheKey(p.ID))
	}
	s.invalidate(ctx, ids...)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidate failed", "error", err)
	}
}
