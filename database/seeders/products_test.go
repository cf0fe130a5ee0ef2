package seeders_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/solestore/solestore/app/repositories"
	_ "github.com/solestore/solestore/database/migrations"
	"github.com/solestore/solestore/database/seeders"
	"github.com/solestore/solestore/pkg/database"
	"github.com/solestore/solestore/pkg/migration"
)

func migratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "products.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, nil).Run(ctx)
	require.NoError(t, err)
	return db
}

func TestSeedProductsLog(t *testing.T) {
	db := migratedDB(t)
	var out bytes.Buffer

	require.NoError(t, seeders.SeedProducts(context.Background(), db, &out))

	assert.Equal(t, "Database connection: SUCCESS\n"+
		"Deleted existing products\n"+
		"Products table exists\n"+
		"Added product: Red Runner\n"+
		"Added product: Blue Sprinter\n"+
		"Added product: Green Trail\n"+
		"Database initialized with 3 products\n"+
		"Products count in database: 3\n", out.String())
}

func TestSeedTwiceYieldsThreeRecords(t *testing.T) {
	ctx := context.Background()
	db := migratedDB(t)

	require.NoError(t, seeders.RunAll(ctx, db, &bytes.Buffer{}))
	require.NoError(t, seeders.RunAll(ctx, db, &bytes.Buffer{}))

	repo := repositories.NewProductRepository(db)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	blue, err := repo.FindByID(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, blue.ShoeScale)
	assert.Equal(t, 0.125, *blue.ShoeScale)
	assert.Equal(t, []string{"blue", "black", "green"}, []string(blue.AvailableColors))
}

func TestRegisteredSeeders(t *testing.T) {
	assert.Equal(t, []string{"products"}, seeders.Names())
}
