package seeders

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/solestore/solestore/app/models"
	"github.com/solestore/solestore/app/repositories"
)

func init() {
	Register("products", SeedProducts)
}

// SeedProducts replaces the catalog with SampleProducts in one transaction.
// Either all three records land or none do.
func SeedProducts(ctx context.Context, db *gorm.DB, out io.Writer) error {
	repo := repositories.NewProductRepository(db)

	if err := repo.Ping(ctx); err != nil {
		fmt.Fprintln(out, "Database connection: FAILED")
		return err
	}
	fmt.Fprintln(out, "Database connection: SUCCESS")

	added := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)

		if _, err := txRepo.DeleteAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Deleted existing products")

		if txRepo.HasTable() {
			fmt.Fprintln(out, "Products table exists")
		} else {
			fmt.Fprintln(out, "Products table does not exist!")
		}

		for _, p := range SampleProducts() {
			if err := txRepo.Create(ctx, &p); err != nil {
				fmt.Fprintf(out, "Failed to add product: %s\n", p.Name)
				return err
			}
			added++
			fmt.Fprintf(out, "Added product: %s\n", p.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Database initialized with %d products\n", added)

	n, err := repo.Count(ctx)
	if err != nil {
		fmt.Fprintln(out, "Failed to count products")
		return err
	}
	fmt.Fprintf(out, "Products count in database: %d\n", n)
	return nil
}

// SampleProducts is the storefront's demo catalog.
func SampleProducts() []models.Product {
	blueScale := 0.125

	return []models.Product{
		{
			ID:              "1",
			Name:            "Red Runner",
			Price:           129.99,
			ModelPath:       "/shoe1.glb",
			Color:           "red",
			AvailableColors: models.StringList{"red", "blue", "black"},
			Category:        "running",
			Description:     "Premium comfort with stylish design. Made with the highest quality materials for durability and performance. Features advanced cushioning for all-day comfort.",
			Features: models.StringList{
				"Breathable mesh upper",
				"Responsive cushioning",
				"Durable rubber outsole",
				"Reflective details for visibility",
				"Antimicrobial lining",
			},
			Rating:  4.8,
			Reviews: 124,
			InStock: true,
			Date:    "2025-01-15",
		},
		{
			ID:              "2",
			Name:            "Blue Sprinter",
			Price:           149.99,
			ModelPath:       "/shoe2.glb",
			Color:           "blue",
			AvailableColors: models.StringList{"blue", "black", "green"},
			Category:        "running",
			Description:     "Lightweight performance for every step. Designed for serious runners who demand the best in comfort and responsiveness.",
			Features: models.StringList{
				"Ultralight knit construction",
				"Carbon fiber plate for energy return",
				"Heel stabilizer technology",
				"High-traction outsole pattern",
				"Sweat-wicking inner lining",
			},
			Rating:    4.9,
			Reviews:   86,
			InStock:   true,
			Date:      "2025-02-10",
			ShoeScale: &blueScale,
		},
		{
			ID:              "3",
			Name:            "Green Trail",
			Price:           169.99,
			ModelPath:       "/shoe3.glb",
			Color:           "green",
			AvailableColors: models.StringList{"green", "black", "red"},
			Category:        "hiking",
			Description:     "Durable design for all terrain adventures. Waterproof and rugged.",
			Features: models.StringList{
				"Waterproof membrane",
				"Aggressive tread pattern",
				"Ankle support system",
				"Reinforced toe cap",
				"Quick-lace system",
			},
			Rating:  4.7,
			Reviews: 59,
			InStock: true,
			Date:    "2025-03-01",
		},
	}
}
