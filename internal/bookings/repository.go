package bookings

import (
	"context"

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

func (r *Repository) ListServices(ctx context.Context, category string) ([]models.ServiceOffering, error) {
	query := r.db.WithContext(ctx).Order("id")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var rows []models.ServiceOffering
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list services")
	}
	return rows, nil
}

func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create booking")
	}
	return nil
}

func (r *Repository) CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	if err := r.db.WithContext(ctx).Create(inquiry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create inquiry")
	}
	return nil
}
