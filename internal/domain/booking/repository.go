package booking

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSlotConflict means the requested interval overlaps a booking that
	// still blocks its slot. Surfaced to callers as "choose another slot".
	ErrSlotConflict = errors.New("slot already taken")
	// ErrContention is a transient store-contention failure (serialization
	// or deadlock); callers retry a bounded number of times.
	ErrContention = errors.New("transient store contention")
)

// Repository describes booking persistence needs from use cases.
//
// Create is the concurrency-critical operation: the overlap check against
// blocking bookings and the insert of the new pending row execute as one
// atomic unit scoped to the court. Two concurrent creates for overlapping
// intervals must see exactly one succeed; the loser gets ErrSlotConflict.
type Repository interface {
	Create(ctx context.Context, b Booking) error
	GetByID(ctx context.Context, bookingID string) (Booking, bool, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (Booking, bool, error)
	// ListBlockingByCourt returns bookings on the court intersecting
	// [from, to) that still block their slot at now.
	ListBlockingByCourt(ctx context.Context, courtID string, from, to, now time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID string, statuses []Status, limit int) ([]Booking, error)
	// SetPaymentRef records the processor external reference on a booking
	// that is still pending and unexpired.
	SetPaymentRef(ctx context.Context, bookingID, paymentRef string, now time.Time) error
	// Transition is a compare-and-set state change: it applies from -> to
	// only when the stored status still equals from, and additionally
	// requires an unelapsed expiry for pending -> confirmed and an elapsed
	// expiry for pending -> expired. Returns whether it applied.
	Transition(ctx context.Context, bookingID string, from, to Status, now time.Time) (bool, error)
	// ListStalePending returns pending bookings whose expiry has elapsed,
	// oldest first, capped at limit.
	ListStalePending(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}
