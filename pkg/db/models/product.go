package models

// Product is a catalog entry. Images, sizes, and stock live on variants;
// the colors column keeps the legacy denormalized color summary the
// storefront renders on list pages.
type Product struct {
	ID          int     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;index;not null"`
	Category    string  `gorm:"column:category;index"`
	Subcategory string  `gorm:"column:subcategory"`
	Description string  `gorm:"column:description;type:text"`
	Price       float64 `gorm:"column:price"`
	Colors      *string `gorm:"column:colors;type:text"` // JSON: [{name, hex, images}]
	AgeGroup    *string `gorm:"column:age_group"`
}

func (Product) TableName() string { return "products" }
