package models

import "time"

// Cart holds one JSON items blob per user.
type Cart struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int       `gorm:"column:user_id;uniqueIndex;not null"`
	Items     string    `gorm:"column:items;type:text;default:'[]'"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }
