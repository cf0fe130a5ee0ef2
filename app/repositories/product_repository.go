package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/pkg/metrics"
	"github.com/solestore/solestore/pkg/validate"
)

var (
	// ErrProductNotFound is returned when no row matches the requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrStoreUnavailable is returned when the store cannot be reached at all.
	ErrStoreUnavailable = errors.New("product store unavailable")

	// ErrDuplicateProduct is returned by Create when the id already exists.
	ErrDuplicateProduct = errors.New("product already exists")
)

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Ping reports ErrStoreUnavailable when the pool cannot reach the store.
func (r *ProductRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// All returns every product in storage order (no ORDER BY).
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var products []models.Product
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("repositories: list products: %w", err)
	}
	return products, nil
}

// FindByID looks up a product by primary key.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("repositories: find product %q: %w", id, err)
	}
	return product, nil
}

// Create validates and inserts a new product. Records are write-once: an
// existing id yields ErrDuplicateProduct and the stored row is untouched.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := validate.Check(product); err != nil {
		return err
	}

	defer metrics.ObserveDBQuery("insert", time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("repositories: check product %q: %w", product.ID, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateProduct, product.ID)
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("repositories: create product %q: %w", product.ID, err)
		}
		return nil
	})
}

// Count returns the number of stored products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("repositories: count products: %w", err)
	}
	return n, nil
}

// DeleteAll removes every product. Only the seeding path calls this.
func (r *ProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())

	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{})
	if res.Error != nil {
		return 0, fmt.Errorf("repositories: delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// WithTx returns a repository bound to tx.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// HasTable reports whether the products table exists.
func (r *ProductRepository) HasTable() bool {
	return r.db.Migrator().HasTable(&models.Product{})
}
