package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/metrics"
	"github.com/vrukshaservices/vruksha-backend/pkg/razorpay"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PaymentIntent{}, &models.Order{}))
	return conn
}

type txRunner struct {
	conn *gorm.DB
}

func (t *txRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.conn.WithContext(ctx).Transaction(fn)
}

type stubProvider struct {
	configured      bool
	verifyResult    bool
	createQR        *razorpay.QRCode
	createErr       error
	closeErr        error
	closeResponse   map[string]any
	createCalls     int
	closeCalls      int
	lastCreateParam razorpay.CreateQRParams
}

func (s *stubProvider) Configured() bool              { return s.configured }
func (s *stubProvider) WebhookSecretConfigured() bool { return true }

func (s *stubProvider) CreateQR(_ context.Context, params razorpay.CreateQRParams) (*razorpay.QRCode, error) {
	s.createCalls++
	s.lastCreateParam = params
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createQR, nil
}

func (s *stubProvider) CloseQR(_ context.Context, _ string) (map[string]any, error) {
	s.closeCalls++
	if s.closeErr != nil {
		return nil, s.closeErr
	}
	return s.closeResponse, nil
}

func (s *stubProvider) VerifyWebhookSignature(_ []byte, _ string) bool {
	return s.verifyResult
}

type stubNotifier struct {
	calls []string
}

func (s *stubNotifier) Notify(_ context.Context, kind enums.NotificationType, _ *int, title, _ string) {
	s.calls = append(s.calls, string(kind)+": "+title)
}

type fixture struct {
	svc      *Service
	conn     *gorm.DB
	provider *stubProvider
	notifier *stubNotifier
}

func newFixture(t *testing.T, provider *stubProvider, flags config.FeatureFlagsConfig) *fixture {
	t.Helper()
	conn := newTestDB(t)
	notifier := &stubNotifier{}
	svc, err := NewService(
		NewRepository(conn),
		&txRunner{conn: conn},
		provider,
		notifier,
		metrics.NewPaymentMetrics(nil),
		flags,
		nil,
	)
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, provider: provider, notifier: notifier}
}

func (f *fixture) intent(t *testing.T, id int) *models.PaymentIntent {
	t.Helper()
	var intent models.PaymentIntent
	require.NoError(t, f.conn.First(&intent, "id = ?", id).Error)
	return &intent
}

func TestCreateQRStoresExactPaise(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		paise  int64
	}{
		{name: "whole rupees", amount: "350.00", paise: 35000},
		{name: "fractional", amount: "99.99", paise: 9999},
		{name: "single paisa", amount: "0.01", paise: 1},
		{name: "rounds half paisa", amount: "10.005", paise: 1001},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &stubProvider{
				configured:   true,
				verifyResult: true,
				createQR:     &razorpay.QRCode{ID: "qr_test", ImageURL: "https://rzp.io/qr.png"},
			}, config.FeatureFlagsConfig{})

			result, err := f.svc.CreateQR(context.Background(), 7, CreateQRInput{
				Amount: decimal.RequireFromString(tc.amount),
			})
			require.NoError(t, err)

			stored := f.intent(t, result.PaymentID)
			require.Equal(t, tc.paise, stored.AmountPaise)
			require.Equal(t, tc.paise, f.provider.lastCreateParam.AmountPaise)
		})
	}
}

func TestCreateQRRejectsBadAmounts(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true}, config.FeatureFlagsConfig{})

	for _, amount := range []string{"0", "-5", "-0.01"} {
		_, err := f.svc.CreateQR(context.Background(), 1, CreateQRInput{
			Amount: decimal.RequireFromString(amount),
		})
		require.Error(t, err, "amount %s", amount)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
	require.Zero(t, f.provider.createCalls)
}

func TestCreateQRRecordsProviderReference(t *testing.T) {
	f := newFixture(t, &stubProvider{
		configured:   true,
		verifyResult: true,
		createQR:     &razorpay.QRCode{ID: "qr_1", ImageURL: "https://rzp.io/qr_1.png"},
	}, config.FeatureFlagsConfig{})

	result, err := f.svc.CreateQR(context.Background(), 3, CreateQRInput{
		Amount: decimal.RequireFromString("350.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.ProviderOrderID)
	require.Equal(t, "qr_1", *result.ProviderOrderID)

	stored := f.intent(t, result.PaymentID)
	require.NotNil(t, stored.ProviderOrderID)
	require.Equal(t, "qr_1", *stored.ProviderOrderID)
	require.Equal(t, enums.PaymentStatusPending, stored.Status)
}

func TestCreateQRWithoutKeysFails(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: false, verifyResult: true}, config.FeatureFlagsConfig{})

	_, err := f.svc.CreateQR(context.Background(), 1, CreateQRInput{
		Amount: decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}

func TestCreateQRLocalFallback(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: false, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	result, err := f.svc.CreateQR(context.Background(), 1, CreateQRInput{
		Amount: decimal.RequireFromString("25.50"),
	})
	require.NoError(t, err)
	require.Nil(t, result.ProviderOrderID)
	require.NotNil(t, result.ImageURL)
	require.True(t, strings.HasPrefix(*result.ImageURL, "data:image/svg+xml"))
	require.Zero(t, f.provider.createCalls)
}

func TestVerifyEnforcesOwnership(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true,
		createQR: &razorpay.QRCode{ID: "qr_v"}}, config.FeatureFlagsConfig{})

	result, err := f.svc.CreateQR(context.Background(), 10, CreateQRInput{
		Amount: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.Verify(context.Background(), 11, false, result.PaymentID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	verified, err := f.svc.Verify(context.Background(), 10, false, result.PaymentID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, verified.Status)
	require.Nil(t, verified.OrderID)

	asAdmin, err := f.svc.Verify(context.Background(), 99, true, result.PaymentID)
	require.NoError(t, err)
	require.Equal(t, result.PaymentID, asAdmin.PaymentID)
}

func TestVerifyUnknownPayment(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true}, config.FeatureFlagsConfig{})

	_, err := f.svc.Verify(context.Background(), 1, false, 12345)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCloseWithoutProviderReferenceExpiresLocally(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: false, verifyResult: true},
		config.FeatureFlagsConfig{AllowLocalQR: true})

	created, err := f.svc.CreateQR(context.Background(), 4, CreateQRInput{
		Amount: decimal.RequireFromString("15.00"),
	})
	require.NoError(t, err)

	result, err := f.svc.Close(context.Background(), 4, false, created.PaymentID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, enums.PaymentStatusExpired, result.Status)
	require.Zero(t, f.provider.closeCalls)

	require.Equal(t, enums.PaymentStatusExpired, f.intent(t, created.PaymentID).Status)
}

func TestCloseProviderFailureStillExpires(t *testing.T) {
	provider := &stubProvider{
		configured:   true,
		verifyResult: true,
		createQR:     &razorpay.QRCode{ID: "qr_close"},
		closeErr: pkgerrors.New(pkgerrors.CodeProvider, "provider rejected request").
			WithDetails(map[string]any{"provider_status": 500}),
	}
	f := newFixture(t, provider, config.FeatureFlagsConfig{})

	created, err := f.svc.CreateQR(context.Background(), 5, CreateQRInput{
		Amount: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), 5, false, created.PaymentID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeProvider, pkgerrors.As(err).Code())

	// The ledger still lands terminal even though the provider call failed.
	require.Equal(t, enums.PaymentStatusExpired, f.intent(t, created.PaymentID).Status)
}

func TestCloseSuccess(t *testing.T) {
	provider := &stubProvider{
		configured:    true,
		verifyResult:  true,
		createQR:      &razorpay.QRCode{ID: "qr_ok"},
		closeResponse: map[string]any{"status": "closed"},
	}
	f := newFixture(t, provider, config.FeatureFlagsConfig{})

	created, err := f.svc.CreateQR(context.Background(), 6, CreateQRInput{
		Amount: decimal.RequireFromString("75.00"),
	})
	require.NoError(t, err)

	result, err := f.svc.Close(context.Background(), 6, false, created.PaymentID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, enums.PaymentStatusClosed, result.Status)
	require.Equal(t, "closed", result.ProviderResponse["status"])
	require.Equal(t, 1, provider.closeCalls)
}

func TestCloseAlreadyPaidConflicts(t *testing.T) {
	f := newFixture(t, &stubProvider{configured: true, verifyResult: true,
		createQR: &razorpay.QRCode{ID: "qr_paid"}}, config.FeatureFlagsConfig{})

	created, err := f.svc.CreateQR(context.Background(), 8, CreateQRInput{
		Amount: decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.PaymentIntent{}).
		Where("id = ?", created.PaymentID).
		Update("status", enums.PaymentStatusPaid).Error)

	_, err = f.svc.Close(context.Background(), 8, false, created.PaymentID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}
