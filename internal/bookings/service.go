package bookings

import (
	"context"
	"fmt"
	"strings"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Store is the persistence surface for the service directory and its
// booking/inquiry requests.
type Store interface {
	ListServices(ctx context.Context, category string) ([]models.ServiceOffering, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error
}

// Notifier is the fire-and-forget admin notification port.
type Notifier interface {
	Notify(ctx context.Context, kind enums.NotificationType, refID *int, title, body string)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *logger.Logger
}

func NewService(store Store, notifier Notifier, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store, notifier: notifier, logger: logg}, nil
}

func (s *Service) ListServices(ctx context.Context, category string) ([]models.ServiceOffering, error) {
	return s.store.ListServices(ctx, strings.TrimSpace(category))
}

type BookingInput struct {
	ServiceName  string  `json:"service_name" validate:"required"`
	CustomerName string  `json:"customer_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone" validate:"required"`
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Details      *string `json:"details"`
}

func (s *Service) CreateBooking(ctx context.Context, input BookingInput) (*models.Booking, error) {
	booking := &models.Booking{
		ServiceName:  strings.TrimSpace(input.ServiceName),
		CustomerName: strings.TrimSpace(input.CustomerName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		Date:         input.Date,
		Time:         input.Time,
		Details:      input.Details,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		ref := booking.ID
		s.notifier.Notify(ctx, enums.NotificationTypeBooking, &ref,
			fmt.Sprintf("New booking for %s", booking.ServiceName),
			fmt.Sprintf("%s (%s, %s) requested %s.", booking.CustomerName, booking.Email, booking.Phone, booking.ServiceName))
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithField(ctx, "booking_id", booking.ID), "booking.created")
	}
	return booking, nil
}

type InquiryInput struct {
	ServiceName  string `json:"service_name" validate:"required"`
	CustomerName string `json:"customer_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Message      string `json:"message" validate:"required"`
}

func (s *Service) CreateInquiry(ctx context.Context, input InquiryInput) (*models.Inquiry, error) {
	inquiry := &models.Inquiry{
		ServiceName:  strings.TrimSpace(input.ServiceName),
		CustomerName: strings.TrimSpace(input.CustomerName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		Message:      input.Message,
	}
	if err := s.store.CreateInquiry(ctx, inquiry); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		ref := inquiry.ID
		s.notifier.Notify(ctx, enums.NotificationTypeInquiry, &ref,
			fmt.Sprintf("New inquiry about %s", inquiry.ServiceName),
			fmt.Sprintf("%s (%s) asked: %s", inquiry.CustomerName, inquiry.Email, inquiry.Message))
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithField(ctx, "inquiry_id", inquiry.ID), "inquiry.created")
	}
	return inquiry, nil
}
