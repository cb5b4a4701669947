package controllers

import (
	"net/http"

	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/api/validators"
	"github.com/vrukshaservices/vruksha-backend/internal/bookings"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// ListServices handles GET /api/services.
func ListServices(svc *bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListServices(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// CreateBooking handles POST /api/bookings.
func CreateBooking(svc *bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bookings.BookingInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.CreateBooking(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// CreateInquiry handles POST /api/inquiries.
func CreateInquiry(svc *bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bookings.InquiryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inquiry, err := svc.CreateInquiry(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, inquiry)
	}
}
