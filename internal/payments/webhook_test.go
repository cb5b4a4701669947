package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/razorpay"
)

func capturedWebhook(event, paymentID, qrID string, notes map[string]any) []byte {
	body := map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":    paymentID,
					"qr_id": qrID,
					"notes": notes,
				},
			},
		},
	}
	encoded, _ := json.Marshal(body)
	return encoded
}

func countOrders(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

// Full checkout round trip: 350.00 INR stored as 35000 paise, provider
// reference recorded, capture flips the intent and materializes exactly one
// order, and the identical redelivery is a no-op.
func TestWebhookCaptureScenario(t *testing.T) {
	f := newFixture(t, &stubProvider{
		configured:   true,
		verifyResult: true,
		createQR:     &razorpay.QRCode{ID: "qr_1", ImageURL: "https://rzp.io/qr_1.png"},
	}, config.FeatureFlagsConfig{})

	created, err := f.svc.CreateQR(context.Background(), 42, CreateQRInput{
		Amount: decimal.RequireFromString("350.00"),
		Metadata: map[string]any{
			"customer_name": "Asha Pillai",
			"email":         "asha@example.com",
			"phone":         "9876543210",
			"address":       "12 Temple Street, Kochi",
			"items": []map[string]any{
				{"product_id": 3, "name": "Silk Saree", "quantity": 1, "price": 350.0},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(35000), f.intent(t, created.PaymentID).AmountPaise)
	require.Equal(t, "qr_1", *f.intent(t, created.PaymentID).ProviderOrderID)

	body := capturedWebhook("payment.captured", "pay_9", "qr_1",
		map[string]any{"local_payment_id": fmt.Sprint(created.PaymentID)})

	ack, err := f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.True(t, ack.OK)

	stored := f.intent(t, created.PaymentID)
	require.Equal(t, enums.PaymentStatusPaid, stored.Status)
	require.Equal(t, "pay_9", *stored.ProviderPaymentID)
	require.NotNil(t, stored.OrderID)

	var order models.Order
	require.NoError(t, f.conn.First(&order, "id = ?", *stored.OrderID).Error)
	require.Equal(t, 350.0, order.TotalAmount)
	require.Equal(t, "Asha Pillai", order.CustomerName)
	require.Equal(t, "asha@example.com", order.Email)
	require.Equal(t, int64(1), countOrders(t, f))
	require.Len(t, f.notifier.calls, 1)

	// Identical redelivery: same paid record, no second order.
	ack, err = f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.True(t, ack.OK)

	after := f.intent(t, created.PaymentID)
	require.Equal(t, enums.PaymentStatusPaid, after.Status)
	require.Equal(t, stored.OrderID, after.OrderID)
	require.Equal(t, int64(1), countOrders(t, f))
	require.Len(t, f.notifier.calls, 1)
}

// When the provider reference and the notes field point at different rows,
// the stored reference wins.
func TestWebhookResolutionPrecedence(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	first, err := f.svc.CreateQR(context.Background(), 1, CreateQRInput{
		Amount:   decimal.RequireFromString("10.00"),
		Metadata: map[string]any{"customer_name": "first"},
	})
	require.NoError(t, err)
	second, err := f.svc.CreateQR(context.Background(), 1, CreateQRInput{
		Amount:   decimal.RequireFromString("20.00"),
		Metadata: map[string]any{"customer_name": "second"},
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.PaymentIntent{}).
		Where("id = ?", first.PaymentID).
		Update("provider_order_id", "qr_conflict").Error)

	body := capturedWebhook("payment.captured", "pay_x", "qr_conflict",
		map[string]any{"local_payment_id": second.PaymentID})

	_, err = f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)

	require.Equal(t, enums.PaymentStatusPaid, f.intent(t, first.PaymentID).Status)
	require.Equal(t, enums.PaymentStatusPending, f.intent(t, second.PaymentID).Status)
}

// A QR id with no stored match but a numeric value is tried as the local id.
func TestWebhookNumericQRIDCoercion(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 2, CreateQRInput{
		Amount: decimal.RequireFromString("12.00"),
	})
	require.NoError(t, err)

	body := capturedWebhook("payment.captured", "pay_n", fmt.Sprint(created.PaymentID), nil)

	_, err = f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, f.intent(t, created.PaymentID).Status)
}

func TestWebhookUnknownEventNeverTransitions(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 3, CreateQRInput{
		Amount: decimal.RequireFromString("18.00"),
	})
	require.NoError(t, err)

	for _, event := range []string{"payment.failed", "qr_code.closed", "refund.processed"} {
		body := capturedWebhook(event, "pay_z", "",
			map[string]any{"local_payment_id": created.PaymentID})
		ack, err := f.svc.HandleWebhook(context.Background(), body, "sig")
		require.NoError(t, err)
		require.True(t, ack.OK)
	}

	require.Equal(t, enums.PaymentStatusPending, f.intent(t, created.PaymentID).Status)
	require.Equal(t, int64(0), countOrders(t, f))
}

func TestWebhookUnmatchedAcksWithoutError(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true}, config.FeatureFlagsConfig{})

	body := capturedWebhook("payment.captured", "pay_a", "qr_unknown",
		map[string]any{"local_payment_id": 9999})

	ack, err := f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.True(t, ack.OK)
	require.Equal(t, "no matching payment", ack.Message)
}

func TestWebhookSignatureMismatchRejects(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: false},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 4, CreateQRInput{
		Amount: decimal.RequireFromString("8.00"),
	})
	require.NoError(t, err)

	body := capturedWebhook("payment.captured", "pay_b", "",
		map[string]any{"local_payment_id": created.PaymentID})

	_, err = f.svc.HandleWebhook(context.Background(), body, "bad-signature")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.Equal(t, enums.PaymentStatusPending, f.intent(t, created.PaymentID).Status)
}

func TestWebhookInvalidBodyRejects(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true}, config.FeatureFlagsConfig{})

	_, err := f.svc.HandleWebhook(context.Background(), []byte("not json"), "sig")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestWebhookAuthorizedEventAlsoCaptures(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 5, CreateQRInput{
		Amount:   decimal.RequireFromString("60.00"),
		Metadata: map[string]any{"customer_name": "auth flow"},
	})
	require.NoError(t, err)

	body := capturedWebhook("payment.authorized", "pay_c", "",
		map[string]any{"local_payment_id": created.PaymentID})

	_, err = f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, f.intent(t, created.PaymentID).Status)
	require.Equal(t, int64(1), countOrders(t, f))
}

func TestWebhookClosedIntentStaysClosed(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 6, CreateQRInput{
		Amount: decimal.RequireFromString("40.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), 6, false, created.PaymentID)
	require.NoError(t, err)

	body := capturedWebhook("payment.captured", "pay_d", "",
		map[string]any{"local_payment_id": created.PaymentID})
	ack, err := f.svc.HandleWebhook(context.Background(), body, "sig")
	require.NoError(t, err)
	require.True(t, ack.OK)

	require.Equal(t, enums.PaymentStatusExpired, f.intent(t, created.PaymentID).Status)
	require.Equal(t, int64(0), countOrders(t, f))
}
