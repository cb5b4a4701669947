package notifications

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *models.AdminNotification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin notification")
	}
	return nil
}

func (r *Repository) List(ctx context.Context, unacknowledgedOnly bool, limit int) ([]models.AdminNotification, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if unacknowledgedOnly {
		query = query.Where("is_acknowledged = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.AdminNotification
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list admin notifications")
	}
	return rows, nil
}

func (r *Repository) Acknowledge(ctx context.Context, id int) (*models.AdminNotification, error) {
	var row models.AdminNotification
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get admin notification")
	}

	if row.IsAcknowledged {
		return &row, nil
	}

	now := time.Now().UTC()
	row.IsAcknowledged = true
	row.AcknowledgedAt = &now
	if err := r.db.WithContext(ctx).Model(&models.AdminNotification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_acknowledged": true, "acknowledged_at": now}).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acknowledge admin notification")
	}
	return &row, nil
}
