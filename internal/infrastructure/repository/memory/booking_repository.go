package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
)

// BookingRepository keeps bookings in process memory. The write mutex
// makes the overlap check and the insert one atomic unit, which is the
// same guarantee the postgres repository gets from its per-court
// advisory lock.
type BookingRepository struct {
	mu           sync.RWMutex
	items        map[string]booking.Booking
	byPaymentRef map[string]string
}

func NewBookingRepository(bookings []booking.Booking) *BookingRepository {
	items := make(map[string]booking.Booking, len(bookings))
	byRef := make(map[string]string)
	for _, b := range bookings {
		items[b.ID] = cloneBooking(b)
		if b.PaymentRef != "" {
			byRef[b.PaymentRef] = b.ID
		}
	}

	return &BookingRepository{
		items:        items,
		byPaymentRef: byRef,
	}
}

func (r *BookingRepository) Create(_ context.Context, b booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[b.ID]; ok {
		return fmt.Errorf("booking %s already exists", b.ID)
	}

	now := b.CreatedAt
	for _, existing := range r.items {
		if existing.CourtID != b.CourtID {
			continue
		}
		if existing.Blocks(now) && existing.Overlaps(b.StartAt, b.EndAt) {
			return fmt.Errorf("%w: court=%s", booking.ErrSlotConflict, b.CourtID)
		}
	}

	r.items[b.ID] = cloneBooking(b)
	if b.PaymentRef != "" {
		r.byPaymentRef[b.PaymentRef] = b.ID
	}

	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, bookingID string) (booking.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[bookingID]
	if !ok {
		return booking.Booking{}, false, nil
	}

	return cloneBooking(b), true, nil
}

func (r *BookingRepository) GetByPaymentRef(_ context.Context, paymentRef string) (booking.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookingID, ok := r.byPaymentRef[paymentRef]
	if !ok {
		return booking.Booking{}, false, nil
	}

	return cloneBooking(r.items[bookingID]), true, nil
}

func (r *BookingRepository) ListBlockingByCourt(_ context.Context, courtID string, from, to, now time.Time) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []booking.Booking
	for _, b := range r.items {
		if b.CourtID != courtID || !b.Blocks(now) || !b.Overlaps(from, to) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })

	return out, nil
}

func (r *BookingRepository) ListByUser(_ context.Context, userID string, statuses []booking.Status, limit int) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[booking.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	var out []booking.Booking
	for _, b := range r.items {
		if b.UserID != userID {
			continue
		}
		if len(wanted) > 0 && !wanted[b.Status] {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *BookingRepository) SetPaymentRef(_ context.Context, bookingID, paymentRef string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[bookingID]
	if !ok {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	if b.Status != booking.StatusPending || !b.ExpiresAt.After(now) {
		return fmt.Errorf("booking %s is not awaiting payment", bookingID)
	}
	if b.PaymentRef != "" && b.PaymentRef != paymentRef {
		return fmt.Errorf("booking %s already carries payment ref %s", bookingID, b.PaymentRef)
	}

	delete(r.byPaymentRef, b.PaymentRef)
	b.PaymentRef = paymentRef
	b.UpdatedAt = now
	r.items[bookingID] = b
	r.byPaymentRef[paymentRef] = bookingID

	return nil
}

func (r *BookingRepository) Transition(_ context.Context, bookingID string, from, to booking.Status, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[bookingID]
	if !ok {
		return false, fmt.Errorf("booking %s not found", bookingID)
	}
	if b.Status != from || !from.CanTransitionTo(to) {
		return false, nil
	}
	if from == booking.StatusPending && to == booking.StatusConfirmed && !b.ExpiresAt.After(now) {
		return false, nil
	}
	if from == booking.StatusPending && to == booking.StatusExpired && b.ExpiresAt.After(now) {
		return false, nil
	}

	b.Status = to
	b.UpdatedAt = now
	r.items[bookingID] = b

	return true, nil
}

func (r *BookingRepository) ListStalePending(_ context.Context, now time.Time, limit int) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []booking.Booking
	for _, b := range r.items {
		if b.Status == booking.StatusPending && !b.ExpiresAt.After(now) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func cloneBooking(b booking.Booking) booking.Booking {
	out := b
	out.Players = append([]booking.Player(nil), b.Players...)

	return out
}
