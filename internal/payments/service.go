package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	"github.com/vrukshaservices/vruksha-backend/pkg/metrics"
	"github.com/vrukshaservices/vruksha-backend/pkg/razorpay"
)

// Ledger is the persistence surface for payment intents.
type Ledger interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id int) (*models.PaymentIntent, error)
	GetByProviderOrderID(ctx context.Context, ref string) (*models.PaymentIntent, error)
	SetProviderReference(ctx context.Context, id int, ref string) error
	MarkClosedOrExpired(ctx context.Context, id int, status enums.PaymentStatus) error
	ClaimPendingTx(tx *gorm.DB, id int, providerPaymentID string) (bool, error)
	LinkOrderTx(tx *gorm.DB, paymentID, orderID int) error
}

// QRProvider is the slice of the Razorpay client the reconciliation flow
// needs.
type QRProvider interface {
	Configured() bool
	WebhookSecretConfigured() bool
	CreateQR(ctx context.Context, params razorpay.CreateQRParams) (*razorpay.QRCode, error)
	CloseQR(ctx context.Context, qrID string) (map[string]any, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Notifier is the fire-and-forget admin notification port.
type Notifier interface {
	Notify(ctx context.Context, kind enums.NotificationType, refID *int, title, body string)
}

// Service drives the payment lifecycle: mint a QR, reconcile the webhook,
// close early. All state transitions go through the ledger.
type Service struct {
	ledger   Ledger
	tx       db.TxRunner
	provider QRProvider
	notifier Notifier
	metrics  *metrics.PaymentMetrics
	flags    config.FeatureFlagsConfig
	logger   *logger.Logger
}

func NewService(
	ledger Ledger,
	tx db.TxRunner,
	provider QRProvider,
	notifier Notifier,
	m *metrics.PaymentMetrics,
	flags config.FeatureFlagsConfig,
	logg *logger.Logger,
) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	return &Service{
		ledger:   ledger,
		tx:       tx,
		provider: provider,
		notifier: notifier,
		metrics:  m,
		flags:    flags,
		logger:   logg,
	}, nil
}

// CreateQRInput is the checkout request. Amount is rupees as a decimal and is
// converted to paise before anything is stored.
type CreateQRInput struct {
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]any
}

type CreateQRResult struct {
	PaymentID       int     `json:"payment_id"`
	ProviderOrderID *string `json:"provider_order_id"`
	ImageURL        *string `json:"image_url"`
}

// CreateQR records a pending intent and mints a single-use UPI QR for it.
// Provider failures surface to the caller; a fresh checkout mints a fresh
// intent, so nothing here retries.
func (s *Service) CreateQR(ctx context.Context, userID int, input CreateQRInput) (*CreateQRResult, error) {
	paise, err := toPaise(input.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "INR"
	}

	intent := &models.PaymentIntent{
		AmountPaise: paise,
		Currency:    currency,
		Provider:    "razorpay",
		Status:      enums.PaymentStatusPending,
	}
	if userID > 0 {
		intent.UserID = &userID
	}
	if len(input.Metadata) > 0 {
		encoded, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metadata")
		}
		meta := string(encoded)
		intent.MetadataJSON = &meta
	}

	if err := s.ledger.Create(ctx, intent); err != nil {
		return nil, err
	}

	ctx = s.withPaymentID(ctx, intent.ID)

	if !s.provider.Configured() {
		if s.flags.AllowLocalQR {
			// Dev fallback: an inline SVG stands in for the provider QR so
			// the checkout UI can render without Razorpay credentials.
			url := localQRDataURL(intent.ID, paise)
			if s.logger != nil {
				s.logger.Warn(ctx, "payment.local_qr_fallback")
			}
			return &CreateQRResult{PaymentID: intent.ID, ImageURL: &url}, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment keys not configured")
	}

	qr, err := s.provider.CreateQR(ctx, razorpay.CreateQRParams{
		LocalPaymentID: intent.ID,
		AmountPaise:    paise,
		Description:    fmt.Sprintf("Payment for order (payment id %d)", intent.ID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledger.SetProviderReference(ctx, intent.ID, qr.ID); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithField(ctx, "provider_order_id", qr.ID), "payment.qr_created")
	}

	result := &CreateQRResult{PaymentID: intent.ID, ProviderOrderID: &qr.ID}
	if qr.ImageURL != "" {
		img := qr.ImageURL
		result.ImageURL = &img
	}
	return result, nil
}

type VerifyResult struct {
	PaymentID int                 `json:"payment_id"`
	Status    enums.PaymentStatus `json:"status"`
	OrderID   *int                `json:"order_id"`
}

// Verify reports the intent's current state to its owner.
func (s *Service) Verify(ctx context.Context, userID int, isAdmin bool, paymentID int) (*VerifyResult, error) {
	intent, err := s.ledger.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !canAccess(intent, userID, isAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another user")
	}
	return &VerifyResult{
		PaymentID: intent.ID,
		Status:    intent.Status,
		OrderID:   intent.OrderID,
	}, nil
}

type CloseResult struct {
	OK               bool                `json:"ok"`
	Status           enums.PaymentStatus `json:"status"`
	ProviderResponse map[string]any      `json:"provider_response,omitempty"`
}

// Close drives a pending intent to a terminal non-paid state. The local flip
// happens regardless of whether the provider call succeeds; an unreachable
// provider must never leave the ledger non-terminal.
func (s *Service) Close(ctx context.Context, userID int, isAdmin bool, paymentID int) (*CloseResult, error) {
	ctx = s.withPaymentID(ctx, paymentID)

	intent, err := s.ledger.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !canAccess(intent, userID, isAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another user")
	}

	switch intent.Status {
	case enums.PaymentStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already paid")
	case enums.PaymentStatusClosed, enums.PaymentStatusExpired:
		return &CloseResult{OK: true, Status: intent.Status}, nil
	}

	// No provider reference or no credentials means there is nothing to
	// close upstream; the intent simply expires locally.
	if intent.ProviderOrderID == nil || *intent.ProviderOrderID == "" || !s.provider.Configured() {
		if err := s.ledger.MarkClosedOrExpired(ctx, intent.ID, enums.PaymentStatusExpired); err != nil {
			return nil, err
		}
		return &CloseResult{OK: true, Status: enums.PaymentStatusExpired}, nil
	}

	providerResp, closeErr := s.provider.CloseQR(ctx, *intent.ProviderOrderID)
	if closeErr != nil {
		if err := s.ledger.MarkClosedOrExpired(ctx, intent.ID, enums.PaymentStatusExpired); err != nil {
			if s.logger != nil {
				s.logger.Error(ctx, "payment.close_local_expire_failed", err)
			}
		}
		return nil, closeErr
	}

	if err := s.ledger.MarkClosedOrExpired(ctx, intent.ID, enums.PaymentStatusClosed); err != nil {
		return nil, err
	}
	return &CloseResult{OK: true, Status: enums.PaymentStatusClosed, ProviderResponse: providerResp}, nil
}

func canAccess(intent *models.PaymentIntent, userID int, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return intent.UserID != nil && *intent.UserID == userID
}

func toPaise(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive number")
	}
	paise := amount.Mul(decimal.NewFromInt(100)).Round(0)
	if !paise.IsInteger() || paise.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive number")
	}
	return paise.IntPart(), nil
}

func (s *Service) withPaymentID(ctx context.Context, id int) context.Context {
	if s.logger == nil {
		return ctx
	}
	return s.logger.WithPaymentID(ctx, id)
}

// localQRDataURL renders a placeholder QR panel as an inline SVG data URL.
func localQRDataURL(paymentID int, paise int64) string {
	rupees := float64(paise) / 100
	svg := fmt.Sprintf(
		"<svg xmlns='http://www.w3.org/2000/svg' width='240' height='240'>"+
			"<rect width='240' height='240' fill='white' stroke='black'/>"+
			"<text x='120' y='110' text-anchor='middle' font-size='14'>Local QR (dev)</text>"+
			"<text x='120' y='135' text-anchor='middle' font-size='12'>payment %d</text>"+
			"<text x='120' y='160' text-anchor='middle' font-size='12'>INR %.2f</text>"+
			"</svg>",
		paymentID, rupees,
	)
	return "data:image/svg+xml;utf8," + svg
}
