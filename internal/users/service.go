package users

import (
	"context"
	"fmt"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Store is the persistence surface for account administration.
type Store interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	SetAdmin(ctx context.Context, id int, isAdmin bool) error
}

// Service covers the admin-facing account operations.
type Service struct {
	store  Store
	logger *logger.Logger
}

func NewService(store Store, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store, logger: logg}, nil
}

// AccountView is the admin listing shape; it never carries the password hash.
type AccountView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]AccountView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(rows))
	for _, user := range rows {
		views = append(views, AccountView{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Phone:    user.Phone,
			IsActive: user.IsActive,
			IsAdmin:  user.IsAdmin,
		})
	}
	return views, nil
}

// SetAdmin promotes or demotes an account. An admin cannot demote themselves,
// which keeps at least one reachable admin.
func (s *Service) SetAdmin(ctx context.Context, actorID, targetID int, isAdmin bool) error {
	if actorID == targetID && !isAdmin {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot demote your own account")
	}
	if _, err := s.store.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.store.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"target_user_id": targetID,
			"is_admin":       isAdmin,
		}), "user.admin_flag_changed")
	}
	return nil
}
