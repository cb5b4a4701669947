package controllers

import (
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vrukshaservices/vruksha-backend/api/middleware"
	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/api/validators"
	"github.com/vrukshaservices/vruksha-backend/internal/payments"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

type createQRRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Currency string          `json:"currency"`
	Metadata map[string]any  `json:"metadata"`
}

// CreateQR handles POST /api/payments/create_qr.
func CreateQR(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createQRRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateQR(r.Context(), middleware.UserIDFromContext(r.Context()), payments.CreateQRInput{
			Amount:   body.Amount,
			Currency: body.Currency,
			Metadata: body.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VerifyPayment handles GET /api/payments/verify?payment_id=.
func VerifyPayment(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.RequiredQueryInt(r, "payment_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Verify(ctx, middleware.UserIDFromContext(ctx), middleware.IsAdminFromContext(ctx), paymentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type closePaymentRequest struct {
	PaymentID int `json:"payment_id" validate:"required,gt=0"`
}

// ClosePayment handles POST /api/payments/close.
func ClosePayment(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body closePaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Close(ctx, middleware.UserIDFromContext(ctx), middleware.IsAdminFromContext(ctx), body.PaymentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// maxWebhookBody bounds callback reads; provider payloads are small.
const maxWebhookBody = 1 << 20

// RazorpayWebhook handles POST /api/payments/razorpay/webhook. The body is
// read raw because the signature covers the exact bytes on the wire, and the
// ack is written without the success envelope because the provider inspects
// the body shape.
func RazorpayWebhook(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable webhook body"))
			return
		}

		ack, err := svc.HandleWebhook(r.Context(), rawBody, r.Header.Get("X-Razorpay-Signature"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, ack)
	}
}
