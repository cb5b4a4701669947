package users

import (
	"context"
	"errors"
	"strings"

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

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get user")
	}
	return &user, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get user by email")
	}
	return &user, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return rows, nil
}

func (r *Repository) SetAdmin(ctx context.Context, id int, isAdmin bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_admin", isAdmin)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update user admin flag")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, email, hashed string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("hashed_password", hashed)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update user password")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get user profile")
	}
	return &profile, nil
}

func (r *Repository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	existing, err := r.GetProfile(ctx, profile.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user profile")
		}
		return nil
	}
	profile.ID = existing.ID
	profile.Wishlist = existing.Wishlist
	err = r.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"address": profile.Address,
			"city":    profile.City,
			"state":   profile.State,
			"pincode": profile.Pincode,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user profile")
	}
	return nil
}

// SetWishlist writes the wishlist blob, creating the profile row on first use.
func (r *Repository) SetWishlist(ctx context.Context, userID int, wishlist *string) error {
	existing, err := r.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		profile := &models.UserProfile{UserID: userID, Wishlist: wishlist}
		if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user profile")
		}
		return nil
	}
	err = r.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", existing.ID).
		Update("wishlist", wishlist).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update wishlist")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
