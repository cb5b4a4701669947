package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/internal/payments"
	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/metrics"
	"github.com/vrukshaservices/vruksha-backend/pkg/razorpay"
)

type testTxRunner struct {
	conn *gorm.DB
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.conn.WithContext(ctx).Transaction(fn)
}

const webhookSecret = "whsec_controller_test"

func newWebhookHandler(t *testing.T) (http.HandlerFunc, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PaymentIntent{}, &models.Order{}))

	provider := razorpay.NewClient(config.RazorpayConfig{
		KeyID:         "key",
		KeySecret:     "secret",
		BaseURL:       "http://127.0.0.1:1",
		Timeout:       time.Second,
		WebhookSecret: webhookSecret,
	}, nil)

	svc, err := payments.NewService(
		payments.NewRepository(conn),
		&testTxRunner{conn: conn},
		provider,
		nil,
		metrics.NewPaymentMetrics(nil),
		config.FeatureFlagsConfig{},
		nil,
	)
	require.NoError(t, err)

	return RazorpayWebhook(svc, nil), conn
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	handler, _ := newWebhookHandler(t)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","qr_id":"qr_1","notes":{}}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/razorpay/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "forged")

	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRazorpayWebhookAcksUnmatchedPayment(t *testing.T) {
	handler, _ := newWebhookHandler(t)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","qr_id":"qr_none","notes":{}}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/razorpay/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign(body))

	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, true, ack["ok"])
	require.Equal(t, "no matching payment", ack["message"])
}

func TestRazorpayWebhookCapturesPendingPayment(t *testing.T) {
	handler, conn := newWebhookHandler(t)

	meta := `{"customer_name":"Test Buyer","email":"buyer@example.com","items":[]}`
	ref := "qr_ctl"
	intent := models.PaymentIntent{
		AmountPaise:     15000,
		Currency:        "INR",
		Provider:        "razorpay",
		ProviderOrderID: &ref,
		Status:          "pending",
		MetadataJSON:    &meta,
	}
	require.NoError(t, conn.Create(&intent).Error)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_ctl","qr_id":"qr_ctl","notes":{}}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/razorpay/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign(body))

	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.PaymentIntent
	require.NoError(t, conn.First(&stored, "id = ?", intent.ID).Error)
	require.Equal(t, "paid", string(stored.Status))
	require.NotNil(t, stored.OrderID)

	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", *stored.OrderID).Error)
	require.Equal(t, 150.0, order.TotalAmount)
	require.Equal(t, "Test Buyer", order.CustomerName)
}
