package models

import (
	"time"

	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
)

// AdminNotification is an event admins should action or acknowledge.
type AdminNotification struct {
	ID             int                    `gorm:"column:id;primaryKey;autoIncrement"`
	Type           enums.NotificationType `gorm:"column:type;not null"`
	RefID          *int                   `gorm:"column:ref_id"`
	Title          string                 `gorm:"column:title;not null"`
	Body           *string                `gorm:"column:body;type:text"`
	IsAcknowledged bool                   `gorm:"column:is_acknowledged;default:false"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	AcknowledgedAt *time.Time             `gorm:"column:acknowledged_at"`
}

func (AdminNotification) TableName() string { return "admin_notifications" }
