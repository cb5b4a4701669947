package models

import "time"

// Order is a placed order. Line items are stored as a JSON string; each item
// carries a selectedColor descriptor normalized at creation time.
type Order struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerName string    `gorm:"column:customer_name"`
	Email        string    `gorm:"column:email;index"`
	Phone        string    `gorm:"column:phone"`
	Address      string    `gorm:"column:address;type:text"`
	TotalAmount  float64   `gorm:"column:total_amount"`
	Items        string    `gorm:"column:items;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }

// Shipment tracks courier details for an order.
type Shipment struct {
	ID             int        `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int        `gorm:"column:order_id;index;not null"`
	CourierName    *string    `gorm:"column:courier_name"`
	TrackingNumber *string    `gorm:"column:tracking_number"`
	ShippedAt      *time.Time `gorm:"column:shipped_at"`
}

func (Shipment) TableName() string { return "shipments" }
