package models

// Product is a catalog listing. Column names match the storefront's wire
// names so the table reads the same from SQL and JSON.
//
// List-valued fields go through StringList, which stores them as JSON text.
// ShoeScale is nil when the row has no scale hint; it is then omitted from
// JSON entirely rather than sent as null.
type Product struct {
	ID              string     `gorm:"column:id;primaryKey;type:text"            json:"id"              validate:"required"`
	Name            string     `gorm:"column:name;not null"                       json:"name"            validate:"required,max=255"`
	Price           float64    `gorm:"column:price;not null"                      json:"price"           validate:"gte=0"`
	ModelPath       string     `gorm:"column:modelPath;not null"                  json:"modelPath"       validate:"required"`
	Color           string     `gorm:"column:color;not null"                      json:"color"`
	AvailableColors StringList `gorm:"column:availableColors;type:text;not null" json:"availableColors"`
	Category        string     `gorm:"column:category;not null"                   json:"category"`
	Description     string     `gorm:"column:description;type:text;not null"     json:"description"`
	Features        StringList `gorm:"column:features;type:text;not null"        json:"features"`
	Rating          float64    `gorm:"column:rating;not null"                     json:"rating"`
	Reviews         int        `gorm:"column:reviews;not null"                    json:"reviews"         validate:"gte=0"`
	InStock         bool       `gorm:"column:inStock;not null"                    json:"inStock"`
	Date            string     `gorm:"column:date;not null"                       json:"date"            validate:"required,date"`
	ShoeScale       *float64   `gorm:"column:shoeScale"                           json:"shoeScale,omitempty" validate:"nullable,gte=0"`
}

// TableName pins the table to "products".
func (Product) TableName() string { return "products" }

// Scale returns the scale hint, or def when the record has none.
func (p Product) Scale(def float64) float64 {
	if p.ShoeScale == nil {
		return def
	}
	return *p.ShoeScale
}
