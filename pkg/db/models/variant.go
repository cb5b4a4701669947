package models

// Variant is a color-level child of a product.
type Variant struct {
	ID        int     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int     `gorm:"column:product_id;index;not null"`
	Color     string  `gorm:"column:color;not null"`
	ColorCode *string `gorm:"column:color_code"`
}

func (Variant) TableName() string { return "product_variants" }

// VariantImage stores one image URL for a variant.
type VariantImage struct {
	ID        int    `gorm:"column:id;primaryKey;autoIncrement"`
	VariantID int    `gorm:"column:variant_id;index;not null"`
	ImageURL  string `gorm:"column:image_url;not null"`
}

func (VariantImage) TableName() string { return "variant_images" }

// VariantSize tracks per-size stock for a variant.
type VariantSize struct {
	ID        int    `gorm:"column:id;primaryKey;autoIncrement"`
	VariantID int    `gorm:"column:variant_id;index;not null"`
	Size      string `gorm:"column:size;not null"`
	Stock     int    `gorm:"column:stock;default:0"`
}

func (VariantSize) TableName() string { return "variant_sizes" }
