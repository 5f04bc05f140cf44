package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/courts/{courtID}/availability", handler.GetCourtAvailability)
	mux.HandleFunc("GET /v1/complexes/{complexID}/availability", handler.GetComplexAvailability)
	mux.HandleFunc("POST /v1/payments/callback", handler.PaymentCallback)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/bookings", RequireAuth(verifier, http.HandlerFunc(handler.CreateBooking)))
	mux.Handle("GET /v1/bookings/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyBookings)))
	mux.Handle("POST /v1/bookings/{bookingID}/checkout", RequireAuth(verifier, http.HandlerFunc(handler.CreateBookingCheckout)))
	mux.Handle("POST /v1/bookings/{bookingID}/cancel", RequireAuth(verifier, http.HandlerFunc(handler.CancelBooking)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/expiry-sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunExpirySweepJob)))
}
