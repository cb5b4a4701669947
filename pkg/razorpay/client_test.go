package razorpay

import (
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

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

func testClient(baseURL string) *Client {
	return NewClient(config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		BaseURL:       baseURL,
		Timeout:       2 * time.Second,
		WebhookSecret: "whsec",
	}, nil)
}

func TestCreateQRSendsProviderRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/qr_codes", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rzp_test_key", user)
		require.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":        "qr_abc",
			"image_url": "https://rzp.io/qr_abc.png",
		})
	}))
	defer server.Close()

	qr, err := testClient(server.URL).CreateQR(context.Background(), CreateQRParams{
		LocalPaymentID: 17,
		AmountPaise:    35000,
		Description:    "test checkout",
	})
	require.NoError(t, err)
	require.Equal(t, "qr_abc", qr.ID)
	require.Equal(t, "https://rzp.io/qr_abc.png", qr.ImageURL)

	require.Equal(t, "upi_qr", captured["type"])
	require.Equal(t, "Vruksha Order 17", captured["name"])
	require.Equal(t, "single_use", captured["usage"])
	require.Equal(t, true, captured["fixed_amount"])
	require.Equal(t, float64(35000), captured["payment_amount"])
	notes, ok := captured["notes"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "17", notes["local_payment_id"])
}

func TestCreateQRParsesNestedImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "qr_nested",
			"qr": map[string]any{"image_url": "https://rzp.io/nested.png"},
		})
	}))
	defer server.Close()

	qr, err := testClient(server.URL).CreateQR(context.Background(), CreateQRParams{
		LocalPaymentID: 1,
		AmountPaise:    100,
	})
	require.NoError(t, err)
	require.Equal(t, "https://rzp.io/nested.png", qr.ImageURL)
}

func TestCreateQRSurfacesProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"description": "amount too low"},
		})
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateQR(context.Background(), CreateQRParams{
		LocalPaymentID: 2,
		AmountPaise:    1,
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeProvider, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, details["provider_status"])
	require.NotNil(t, details["provider_error"])
}

func TestCreateQRNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := testClient(server.URL).CreateQR(context.Background(), CreateQRParams{
		LocalPaymentID: 3,
		AmountPaise:    500,
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeProvider, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "provider_request_failed", details["error"])
}

func TestCreateQRWithoutCredentials(t *testing.T) {
	client := NewClient(config.RazorpayConfig{}, nil)
	_, err := client.CreateQR(context.Background(), CreateQRParams{LocalPaymentID: 1, AmountPaise: 100})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}

func TestCloseQRHitsClosePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/qr_codes/qr_77/close", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"id": "qr_77", "status": "closed"})
	}))
	defer server.Close()

	resp, err := testClient(server.URL).CloseQR(context.Background(), "qr_77")
	require.NoError(t, err)
	require.Equal(t, "closed", resp["status"])
}

func TestCloseQRRequiresID(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").CloseQR(context.Background(), "  ")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := testClient("http://unused")
	body := []byte(`{"event":"payment.captured"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	require.True(t, client.VerifyWebhookSignature(body, valid))
	require.False(t, client.VerifyWebhookSignature(body, "deadbeef"))
	require.False(t, client.VerifyWebhookSignature([]byte("tampered"), valid))
}

func TestVerifyWebhookSignatureSkippedWithoutSecret(t *testing.T) {
	client := NewClient(config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil)
	require.True(t, client.VerifyWebhookSignature([]byte("anything"), "whatever"))
}
