package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

// OTPRepository persists password-reset codes.
type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, otp *models.PasswordResetOTP) error {
	otp.Email = strings.ToLower(strings.TrimSpace(otp.Email))
	if err := r.db.WithContext(ctx).Create(otp).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reset otp")
	}
	return nil
}

// Latest returns the most recent unused, unexpired code for the email.
func (r *OTPRepository) Latest(ctx context.Context, email string) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND used = ? AND expires_at > ?",
			strings.ToLower(strings.TrimSpace(email)), false, time.Now().UTC()).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get reset otp")
	}
	return &otp, nil
}

func (r *OTPRepository) MarkUsed(ctx context.Context, id int) error {
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetOTP{}).
		Where("id = ?", id).
		Update("used", true).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark otp used")
	}
	return nil
}
