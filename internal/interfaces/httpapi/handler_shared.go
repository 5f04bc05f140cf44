package httpapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/usecase"
)

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type createBookingRequest struct {
	CourtID string                 `json:"court_id" validate:"required"`
	StartAt string                 `json:"start_at" validate:"required"`
	EndAt   string                 `json:"end_at" validate:"required"`
	Players []bookingPlayerRequest `json:"players" validate:"omitempty,max=10,dive"`
}

type bookingPlayerRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

type paymentCallbackRequest struct {
	PreferenceID string `json:"preference_id" validate:"required"`
	PaymentID    string `json:"payment_id" validate:"omitempty,max=64"`
	Status       string `json:"status" validate:"required"`
}

type slotDTO struct {
	CourtID string    `json:"court_id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Status  string    `json:"status"`
	Price   int64     `json:"price"`
	Deposit int64     `json:"deposit"`
	RuleID  string    `json:"rule_id,omitempty"`
}

type courtAvailabilityDTO struct {
	CourtID   string    `json:"court_id"`
	CourtName string    `json:"court_name"`
	Slots     []slotDTO `json:"slots"`
}

type bookingPlayerDTO struct {
	Name   string `json:"name"`
	UserID string `json:"user_id,omitempty"`
}

type bookingDTO struct {
	ID         string             `json:"id"`
	CourtID    string             `json:"court_id"`
	ComplexID  string             `json:"complex_id"`
	Status     string             `json:"status"`
	StartAt    time.Time          `json:"start_at"`
	EndAt      time.Time          `json:"end_at"`
	Price      int64              `json:"price"`
	Deposit    int64              `json:"deposit"`
	RuleID     string             `json:"rule_id,omitempty"`
	PaymentRef string             `json:"payment_ref,omitempty"`
	Players    []bookingPlayerDTO `json:"players,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

type checkoutDTO struct {
	PaymentRef string    `json:"payment_ref"`
	InitPoint  string    `json:"init_point"`
	Amount     int64     `json:"amount"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type createBookingResponse struct {
	Booking  bookingDTO   `json:"booking"`
	Checkout *checkoutDTO `json:"checkout,omitempty"`
}

func slotToDTO(s usecase.Slot) slotDTO {
	return slotDTO{
		CourtID: s.CourtID,
		StartAt: s.StartAt,
		EndAt:   s.EndAt,
		Status:  string(s.Status),
		Price:   s.Price,
		Deposit: s.Deposit,
		RuleID:  s.RuleID,
	}
}

func slotsToDTO(slots []usecase.Slot) []slotDTO {
	items := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotToDTO(s))
	}
	return items
}

func bookingToDTO(b booking.Booking) bookingDTO {
	dto := bookingDTO{
		ID:         b.ID,
		CourtID:    b.CourtID,
		ComplexID:  b.ComplexID,
		Status:     string(b.Status),
		StartAt:    b.StartAt,
		EndAt:      b.EndAt,
		Price:      b.Price,
		Deposit:    b.Deposit,
		RuleID:     b.RuleID,
		PaymentRef: b.PaymentRef,
		CreatedAt:  b.CreatedAt,
	}
	for _, p := range b.Players {
		dto.Players = append(dto.Players, bookingPlayerDTO{Name: p.Name, UserID: p.UserID})
	}
	if !b.ExpiresAt.IsZero() {
		expiresAt := b.ExpiresAt
		dto.ExpiresAt = &expiresAt
	}
	return dto
}

func checkoutToDTO(session usecase.CheckoutSession) checkoutDTO {
	return checkoutDTO{
		PaymentRef: session.PaymentRef,
		InitPoint:  session.InitPoint,
		Amount:     session.Amount,
		ExpiresAt:  session.ExpiresAt,
	}
}

// parseTimeQuery reads an RFC 3339 query parameter, falling back to the
// given default when the parameter is absent.
func parseTimeQuery(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp must be RFC 3339: %v", usecase.ErrInvalidInput, err)
	}
	return parsed, nil
}

func parseTimeField(name, raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339: %v", usecase.ErrInvalidInput, name, err)
	}
	return parsed, nil
}

func parseStatusFilter(raw string) ([]booking.Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var statuses []booking.Status
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch status := booking.Status(part); status {
		case booking.StatusPending, booking.StatusConfirmed, booking.StatusCancelled, booking.StatusExpired:
			statuses = append(statuses, status)
		default:
			return nil, fmt.Errorf("%w: unknown booking status %q", usecase.ErrInvalidInput, part)
		}
	}
	return statuses, nil
}
