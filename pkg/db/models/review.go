package models

import "time"

// Review is a customer rating on a product.
type Review struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int       `gorm:"column:product_id;index;not null"`
	UserName  *string   `gorm:"column:user_name"`
	Rating    int       `gorm:"column:rating;default:5"`
	Text      *string   `gorm:"column:text;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }
