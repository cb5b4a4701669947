package notifications

import (
	"context"
	"fmt"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	"github.com/vrukshaservices/vruksha-backend/pkg/mailer"
)

// Store is the persistence surface for admin notifications.
type Store interface {
	Create(ctx context.Context, notification *models.AdminNotification) error
	List(ctx context.Context, unacknowledgedOnly bool, limit int) ([]models.AdminNotification, error)
	Acknowledge(ctx context.Context, id int) (*models.AdminNotification, error)
}

// Service fans events out to admins: one persisted row plus one email, both
// best-effort. Notify never fails the caller; delivery is at-most-once with
// no retry.
type Service struct {
	store  Store
	mail   *mailer.Mailer
	logger *logger.Logger
}

func NewService(store Store, mail *mailer.Mailer, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store, mail: mail, logger: logg}, nil
}

// Notify records the event and emails admins. Failures are logged and
// swallowed so the primary transaction never blocks on fan-out.
func (s *Service) Notify(ctx context.Context, kind enums.NotificationType, refID *int, title, body string) {
	notification := &models.AdminNotification{
		Type:  kind,
		RefID: refID,
		Title: title,
	}
	if body != "" {
		notification.Body = &body
	}

	if err := s.store.Create(ctx, notification); err != nil {
		if s.logger != nil {
			s.logger.Error(ctx, "notification.persist_failed", err)
		}
	}

	if s.mail != nil {
		s.mail.NotifyAdmins(ctx, title, body)
	}
}

func (s *Service) List(ctx context.Context, unacknowledgedOnly bool, limit int) ([]models.AdminNotification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.List(ctx, unacknowledgedOnly, limit)
}

func (s *Service) Acknowledge(ctx context.Context, id int) (*models.AdminNotification, error) {
	return s.store.Acknowledge(ctx, id)
}
