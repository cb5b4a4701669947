package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

// Repository persists payment intents. Every status change funnels through
// here so the forward-only lifecycle is enforced in one place.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment intent")
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get payment intent")
	}
	return &intent, nil
}

func (r *Repository) GetByProviderOrderID(ctx context.Context, ref string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "provider_order_id = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get payment intent by provider ref")
	}
	return &intent, nil
}

// SetProviderReference records the provider's QR id. Guarded on pending so a
// reference is written at most once.
func (r *Repository) SetProviderReference(ctx context.Context, id int, ref string) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Update("provider_order_id", ref)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "set provider reference")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
	}
	return nil
}

// MarkClosedOrExpired moves a pending intent to closed or expired.
func (r *Repository) MarkClosedOrExpired(ctx context.Context, id int, status enums.PaymentStatus) error {
	if status != enums.PaymentStatusClosed && status != enums.PaymentStatusExpired {
		return pkgerrors.New(pkgerrors.CodeInternal, "status must be closed or expired")
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Update("status", status)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "mark payment closed")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
	}
	return nil
}

// ClaimPendingTx flips a pending intent to paid inside the caller's
// transaction and records the provider payment id. The guarded update is the
// idempotency check: only one delivery of a duplicate webhook sees a row
// flip, so only one delivery materializes an order.
func (r *Repository) ClaimPendingTx(tx *gorm.DB, id int, providerPaymentID string) (bool, error) {
	res := tx.Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":              enums.PaymentStatusPaid,
			"provider_payment_id": providerPaymentID,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "mark payment paid")
	}
	return res.RowsAffected == 1, nil
}

// LinkOrderTx back-links the materialized order onto the intent.
func (r *Repository) LinkOrderTx(tx *gorm.DB, paymentID, orderID int) error {
	err := tx.Model(&models.PaymentIntent{}).
		Where("id = ?", paymentID).
		Update("order_id", orderID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link order to payment")
	}
	return nil
}
