package models

import (
	"time"

	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
)

// PaymentIntent tracks one checkout attempt against the payment provider.
// Rows are never deleted; terminal rows remain as the audit trail.
//
// AmountPaise is the amount in the smallest currency unit. ProviderOrderID is
// the provider's QR id, set at most once when the QR mint succeeds.
// ProviderPaymentID is set when the webhook confirms capture. OrderID
// back-links the materialized order and is set at most once, on the first
// transition into paid.
type PaymentIntent struct {
	ID                int                 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID            *int                `gorm:"column:user_id;index"`
	AmountPaise       int64               `gorm:"column:amount;not null"`
	Currency          string              `gorm:"column:currency;default:'INR'"`
	Provider          string              `gorm:"column:provider;default:'razorpay'"`
	ProviderOrderID   *string             `gorm:"column:provider_order_id;index"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	Status            enums.PaymentStatus `gorm:"column:status;default:'pending'"`
	MetadataJSON      *string             `gorm:"column:metadata_json;type:text"`
	OrderID           *int                `gorm:"column:order_id"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentIntent) TableName() string { return "payments" }
