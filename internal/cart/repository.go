package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, userID int) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get cart")
	}
	return &cart, nil
}

// Upsert writes the user's single cart row, inserting it on first use.
func (r *Repository) Upsert(ctx context.Context, userID int, items string) (*models.Cart, error) {
	cart := models.Cart{UserID: userID, Items: items}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&cart).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert cart")
	}
	return &cart, nil
}

func (r *Repository) Clear(ctx context.Context, userID int) error {
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("items", "[]").Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}
