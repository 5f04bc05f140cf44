package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/usecase"
)

// CreateBooking reserves the slot and opens a processor checkout in one
// call. The reservation is the atomic part; when the checkout cannot be
// opened the pending booking is still returned without one, and the
// client retries through CreateBookingCheckout before the payment
// window elapses.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateBooking")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createBookingRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	startAt, err := parseTimeField("start_at", req.StartAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	endAt, err := parseTimeField("end_at", req.EndAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.ReserveInput{
		CourtID: req.CourtID,
		StartAt: startAt,
		EndAt:   endAt,
	}
	for _, p := range req.Players {
		input.Players = append(input.Players, usecase.PlayerInput{Name: p.Name, UserID: p.UserID})
	}

	b, err := h.reservationService.Reserve(ctx, principal, input)
	if err != nil {
		h.logger.WarnContext(ctx, "reserve failed", "user_id", principal.UserID, "court_id", req.CourtID, "error", err)
		writeError(ctx, w, err)
		return
	}

	response := createBookingResponse{Booking: bookingToDTO(b)}
	session, err := h.settlementService.CreatePreference(ctx, b.ID)
	if err != nil {
		// The slot is held regardless; surface the booking so the client
		// can retry the checkout within the payment window.
		h.logger.WarnContext(ctx, "open checkout after reserve failed", "booking_id", b.ID, "error", err)
	} else {
		checkout := checkoutToDTO(session)
		response.Checkout = &checkout
		response.Booking.PaymentRef = session.PaymentRef
	}

	writeSuccess(ctx, w, http.StatusCreated, response)
}

// CreateBookingCheckout re-opens the processor checkout for a pending
// booking. The booking id doubles as the processor idempotency key, so
// retries land on the same preference.
func (h *Handler) CreateBookingCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateBookingCheckout")
	defer span.End()

	if _, ok := principalFromContext(ctx); !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	bookingID := strings.TrimSpace(r.PathValue("bookingID"))

	session, err := h.settlementService.CreatePreference(ctx, bookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "open checkout failed", "booking_id", bookingID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, checkoutToDTO(session))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelBooking")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	bookingID := strings.TrimSpace(r.PathValue("bookingID"))

	b, err := h.reservationService.Cancel(ctx, principal, bookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel booking failed", "user_id", principal.UserID, "booking_id", bookingID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingToDTO(b))
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyBookings")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput))
			return
		}
	}

	bookings, err := h.reservationService.ListUserBookings(ctx, principal, statuses, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list my bookings failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, bookingToDTO(b))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// RunExpirySweepJob serves the internal endpoint the scheduler and
// operators use to force a sweep of stale pending bookings.
func (h *Handler) RunExpirySweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunExpirySweepJob")
	defer span.End()

	result, err := h.expiryService.Sweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
