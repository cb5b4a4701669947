package models

import "time"

// UserProfile carries shipping details and the wishlist JSON blob for a user.
type UserProfile struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int       `gorm:"column:user_id;uniqueIndex;not null"`
	Address   *string   `gorm:"column:address"`
	City      *string   `gorm:"column:city"`
	State     *string   `gorm:"column:state"`
	Pincode   *string   `gorm:"column:pincode"`
	Wishlist  *string   `gorm:"column:wishlist"` // JSON array of product ids
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserProfile) TableName() string { return "user_profiles" }
