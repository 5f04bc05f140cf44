package usecase

import (
	"context"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/platform/logging"
)

type EventKind string

const (
	EventBookingPendingCreated EventKind = "booking.pending_created"
	EventBookingConfirmed      EventKind = "booking.confirmed"
	EventBookingCancelled      EventKind = "booking.cancelled"
	EventBookingExpired        EventKind = "booking.expired"
)

// Event is a booking lifecycle notification handed to the dispatcher.
// Delivery is best effort and never blocks or fails the state change
// that produced it.
type Event struct {
	Kind       EventKind `json:"kind"`
	BookingID  string    `json:"booking_id"`
	ComplexID  string    `json:"complex_id"`
	CourtID    string    `json:"court_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

type noopNotifier struct{}

func (noopNotifier) Publish(_ context.Context, _ Event) error {
	return nil
}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func publishBookingEvent(ctx context.Context, notifier Notifier, logger *logging.Logger, kind EventKind, b booking.Booking, at time.Time) {
	event := Event{
		Kind:       kind,
		BookingID:  b.ID,
		ComplexID:  b.ComplexID,
		CourtID:    b.CourtID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		OccurredAt: at,
	}
	if err := notifier.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "publish booking event failed", "kind", string(kind), "booking_id", b.ID, "error", err)
	}
}
