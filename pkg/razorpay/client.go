package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

const qrCodesPath = "/v1/payments/qr_codes"

// Client wraps the Razorpay QR code API with centralized auth, logging, and
// error mapping. A QR is single-use by construction, so failed mints are not
// retried here; the caller issues a fresh checkout instead.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// CreateQRParams carries everything needed to mint a UPI QR. LocalPaymentID
// is embedded in the provider notes so the webhook can be resolved back to
// the ledger row even when Razorpay does not echo our reference.
type CreateQRParams struct {
	LocalPaymentID int
	AmountPaise    int64
	Description    string
}

// QRCode is the subset of the provider response the ledger cares about.
type QRCode struct {
	ID       string
	ImageURL string
}

type qrCreateRequest struct {
	Type          string            `json:"type"`
	Name          string            `json:"name"`
	Usage         string            `json:"usage"`
	FixedAmount   bool              `json:"fixed_amount"`
	PaymentAmount int64             `json:"payment_amount"`
	Description   string            `json:"description"`
	Notes         map[string]string `json:"notes"`
}

type qrCreateResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
	QR       *struct {
		ImageURL string `json:"image_url"`
	} `json:"qr"`
}

// NewClient initializes the Razorpay wrapper. Credentials may be empty; the
// caller is expected to check Configured before minting.
func NewClient(cfg config.RazorpayConfig, logg *logger.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.razorpay.com"
	}
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       base,
		keyID:         strings.TrimSpace(cfg.KeyID),
		keySecret:     strings.TrimSpace(cfg.KeySecret),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		logger:        logg,
	}
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.keyID != "" && c.keySecret != ""
}

// WebhookSecretConfigured reports whether callback signatures can be checked.
func (c *Client) WebhookSecretConfigured() bool {
	return c != nil && c.webhookSecret != ""
}

// CreateQR mints a single-use fixed-amount UPI QR for the payment intent.
func (c *Client) CreateQR(ctx context.Context, params CreateQRParams) (*QRCode, error) {
	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "razorpay credentials not configured")
	}

	body := qrCreateRequest{
		Type:          "upi_qr",
		Name:          fmt.Sprintf("Vruksha Order %d", params.LocalPaymentID),
		Usage:         "single_use",
		FixedAmount:   true,
		PaymentAmount: params.AmountPaise,
		Description:   params.Description,
		Notes:         map[string]string{"local_payment_id": strconv.Itoa(params.LocalPaymentID)},
	}

	c.log(ctx, "request", "create_qr", map[string]any{
		"local_payment_id": params.LocalPaymentID,
		"amount_paise":     params.AmountPaise,
	})

	raw, err := c.do(ctx, http.MethodPost, qrCodesPath, body)
	if err != nil {
		c.log(ctx, "error", "create_qr", map[string]any{"error": err.Error()})
		return nil, err
	}

	var parsed qrCreateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "decode provider response")
	}

	imageURL := parsed.ImageURL
	if imageURL == "" && parsed.QR != nil {
		imageURL = parsed.QR.ImageURL
	}

	c.log(ctx, "response", "create_qr", map[string]any{"qr_id": parsed.ID})
	return &QRCode{ID: parsed.ID, ImageURL: imageURL}, nil
}

// CloseQR asks the provider to close an open QR. Callers must treat every
// error identically to a rejection and still drive the local intent to a
// terminal state.
func (c *Client) CloseQR(ctx context.Context, qrID string) (map[string]any, error) {
	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "razorpay credentials not configured")
	}
	if strings.TrimSpace(qrID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr id is required")
	}

	c.log(ctx, "request", "close_qr", map[string]any{"qr_id": qrID})

	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/close", qrCodesPath, qrID), nil)
	if err != nil {
		c.log(ctx, "error", "close_qr", map[string]any{"error": err.Error()})
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = nil
	}
	c.log(ctx, "response", "close_qr", map[string]any{"qr_id": qrID})
	return parsed, nil
}

// VerifyWebhookSignature recomputes the HMAC-SHA256 digest over the raw body
// and compares it to the header in constant time. It returns true when no
// webhook secret is configured: that mode skips authentication and is only
// acceptable in local development.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if !c.WebhookSecretConfigured() {
		return true
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode provider request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build provider request")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are handled the same as
		// rejections by callers; only the diagnostic differs.
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "provider request failed").
			WithDetails(map[string]any{"error": "provider_request_failed", "message": err.Error()})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "read provider response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var providerErr any
		if err := json.Unmarshal(raw, &providerErr); err != nil {
			providerErr = map[string]any{"raw": string(raw)}
		}
		return nil, pkgerrors.New(pkgerrors.CodeProvider, "provider rejected request").
			WithDetails(map[string]any{
				"provider_status": resp.StatusCode,
				"provider_error":  providerErr,
			})
	}

	return raw, nil
}

func (c *Client) log(ctx context.Context, stage, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"provider": "razorpay", "stage": stage, "operation": operation}
	for k, v := range fields {
		merged[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, merged), "razorpay."+operation)
}
