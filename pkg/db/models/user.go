package models

import "time"

// User is a registered storefront account.
type User struct {
	ID             int       `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;index"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	Phone          string    `gorm:"column:phone"`
	HashedPassword string    `gorm:"column:hashed_password;not null"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	IsAdmin        bool      `gorm:"column:is_admin;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
