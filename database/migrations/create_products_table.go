package migrations

import (
	"gorm.io/gorm"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/pkg/migration"
)

func init() {
	migration.Register("20250101000000_create_products_table", &CreateProductsTable{})
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}
