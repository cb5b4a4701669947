package models

import "time"

// PasswordResetOTP is a single-use code mailed during password recovery.
type PasswordResetOTP struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string    `gorm:"column:email;index;not null"`
	OTP       string    `gorm:"column:otp;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PasswordResetOTP) TableName() string { return "password_reset_otps" }
