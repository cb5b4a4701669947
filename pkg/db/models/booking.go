package models

import "time"

// Booking is a service booking request.
type Booking struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement"`
	ServiceName  string    `gorm:"column:service_name;not null"`
	CustomerName string    `gorm:"column:customer_name"`
	Email        string    `gorm:"column:email"`
	Phone        string    `gorm:"column:phone"`
	Date         *string   `gorm:"column:date"`
	Time         *string   `gorm:"column:time"`
	Details      *string   `gorm:"column:details;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Booking) TableName() string { return "bookings" }

// Inquiry is a free-form question about a service.
type Inquiry struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement"`
	ServiceName  string    `gorm:"column:service_name;not null"`
	CustomerName string    `gorm:"column:customer_name"`
	Email        string    `gorm:"column:email"`
	Phone        string    `gorm:"column:phone"`
	Message      string    `gorm:"column:message;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Inquiry) TableName() string { return "inquiries" }
