package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

const (
	eventPaymentCaptured   = "payment.captured"
	eventPaymentAuthorized = "payment.authorized"
)

// WebhookAck is the body returned to the provider. Anything other than a
// signature failure or an unreadable body acks with 200 so the provider does
// not retry or alert on events that are simply not ours.
type WebhookAck struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookPaymentEntity struct {
	ID    string         `json:"id"`
	QRID  string         `json:"qr_id"`
	Notes map[string]any `json:"notes"`
}

// orderMetadata is the checkout snapshot stored on the intent at creation
// time and replayed into an Order when the payment captures.
type orderMetadata struct {
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Items        json.RawMessage `json:"items"`
}

// HandleWebhook authenticates, resolves, and applies one provider callback.
// Deliveries are at-least-once and may race, so the pending->paid flip and
// the order materialization share one transaction keyed on a guarded update.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookAck, error) {
	if !s.provider.VerifyWebhookSignature(rawBody, signature) {
		s.metrics.ObserveWebhook("rejected")
		if s.logger != nil {
			s.logger.Warn(ctx, "payment.webhook_signature_rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		s.metrics.ObserveWebhook("rejected")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body")
	}

	entity := envelope.Payload.Payment.Entity
	intent := s.resolveIntent(ctx, entity)
	if intent == nil {
		s.metrics.ObserveWebhook("unmatched")
		if s.logger != nil {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"event": envelope.Event,
				"qr_id": entity.QRID,
			}), "payment.webhook_unmatched")
		}
		return &WebhookAck{OK: true, Message: "no matching payment"}, nil
	}

	ctx = s.withPaymentID(ctx, intent.ID)

	if envelope.Event != eventPaymentCaptured && envelope.Event != eventPaymentAuthorized {
		s.metrics.ObserveWebhook("ignored")
		if s.logger != nil {
			s.logger.Info(s.logger.WithField(ctx, "event", envelope.Event), "payment.webhook_ignored")
		}
		return &WebhookAck{OK: true, Message: "event ignored"}, nil
	}

	if intent.Status == enums.PaymentStatusPaid {
		s.metrics.ObserveWebhook("duplicate")
		return &WebhookAck{OK: true, Message: "already paid"}, nil
	}
	if intent.Status.IsTerminal() {
		s.metrics.ObserveWebhook("ignored")
		return &WebhookAck{OK: true, Message: "payment not pending"}, nil
	}

	var orderID int
	claimed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		flipped, err := s.ledger.ClaimPendingTx(tx, intent.ID, entity.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		claimed = true

		order, err := s.materializeOrder(intent)
		if err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order from payment")
		}
		orderID = order.ID
		return s.ledger.LinkOrderTx(tx, intent.ID, order.ID)
	})
	if err != nil {
		// The transaction rolled back, so the intent is still pending and
		// the provider's retry gets another chance.
		if s.logger != nil {
			s.logger.Error(ctx, "payment.webhook_reconcile_failed", err)
		}
		return nil, err
	}

	if !claimed {
		// A concurrent delivery won the flip.
		s.metrics.ObserveWebhook("duplicate")
		return &WebhookAck{OK: true, Message: "already paid"}, nil
	}

	s.metrics.ObserveWebhook("paid")
	s.metrics.IncOrderMaterialized()
	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"order_id":            orderID,
			"provider_payment_id": entity.ID,
		}), "payment.captured")
	}

	if s.notifier != nil {
		ref := orderID
		s.notifier.Notify(ctx, enums.NotificationTypePayment, &ref,
			fmt.Sprintf("Payment received for order #%d", orderID),
			fmt.Sprintf("Payment %d captured (%s %.2f), order #%d created.",
				intent.ID, intent.Currency, float64(intent.AmountPaise)/100, orderID))
	}

	return &WebhookAck{OK: true}, nil
}

// resolveIntent maps a callback to a ledger row. The provider does not
// guarantee echoing our reference, so resolution tries the stored provider
// order id, then the provider QR id coerced as a local numeric id, then the
// notes field, in that order.
func (s *Service) resolveIntent(ctx context.Context, entity webhookPaymentEntity) *models.PaymentIntent {
	if qrID := strings.TrimSpace(entity.QRID); qrID != "" {
		if intent, err := s.ledger.GetByProviderOrderID(ctx, qrID); err == nil {
			return intent
		}
		if localID, err := strconv.Atoi(qrID); err == nil {
			if intent, err := s.ledger.GetByID(ctx, localID); err == nil {
				return intent
			}
		}
	}
	if localID, ok := noteLocalPaymentID(entity.Notes); ok {
		if intent, err := s.ledger.GetByID(ctx, localID); err == nil {
			return intent
		}
	}
	return nil
}

// noteLocalPaymentID pulls our correlation id out of the notes map; the
// provider may round-trip it as either a string or a number.
func noteLocalPaymentID(notes map[string]any) (int, bool) {
	raw, ok := notes["local_payment_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return id, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (s *Service) materializeOrder(intent *models.PaymentIntent) (*models.Order, error) {
	var meta orderMetadata
	if intent.MetadataJSON != nil && *intent.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(*intent.MetadataJSON), &meta); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode payment metadata")
		}
	}

	items := "[]"
	if len(meta.Items) > 0 {
		items = string(meta.Items)
	}

	return &models.Order{
		CustomerName: meta.CustomerName,
		Email:        meta.Email,
		Phone:        meta.Phone,
		Address:      meta.Address,
		TotalAmount:  float64(intent.AmountPaise) / 100,
		Items:        items,
	}, nil
}
