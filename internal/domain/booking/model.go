package booking

import (
	"fmt"
	"time"
)

// Status is a booking lifecycle state. Pending holds the slot against
// competing reservations until expiry; Confirmed is a settled booking;
// Cancelled and Expired are terminal and release the slot.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// CanTransitionTo reports whether the state machine permits s -> next.
// Transitions are one-directional; terminal states accept nothing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusExpired
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}

// Player is a participant attached to a booking. UserID is a weak
// reference to a registered user; empty means a guest.
type Player struct {
	Name   string
	UserID string
}

// Booking is the reservation unit. Price and Deposit are snapshotted
// from the applicable price rule at creation time and never change
// afterwards, regardless of later rule edits. ExpiresAt bounds how long
// a pending booking holds its slot while payment is outstanding.
type Booking struct {
	ID         string
	CourtID    string
	ComplexID  string
	UserID     string
	StartAt    time.Time
	EndAt      time.Time
	Price      int64
	Deposit    int64
	RuleID     string
	Status     Status
	PaymentRef string
	Players    []Player
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b Booking) ValidateBasic() error {
	if b.ID == "" {
		return fmt.Errorf("booking id is required")
	}
	if b.CourtID == "" {
		return fmt.Errorf("court id is required")
	}
	if b.ComplexID == "" {
		return fmt.Errorf("complex id is required")
	}
	if b.UserID == "" {
		return fmt.Errorf("requesting user id is required")
	}
	if !b.StartAt.Before(b.EndAt) {
		return fmt.Errorf("booking start must be before end")
	}
	if b.Price < 0 || b.Deposit < 0 {
		return fmt.Errorf("price and deposit cannot be negative")
	}
	if b.Status == StatusPending && b.ExpiresAt.IsZero() {
		return fmt.Errorf("pending booking requires an expiry")
	}

	return nil
}

// Blocks reports whether the booking holds its slot against competing
// reservations at the given instant. A pending booking whose payment
// window has elapsed no longer blocks even before the sweep has
// transitioned it to Expired.
func (b Booking) Blocks(now time.Time) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return b.ExpiresAt.After(now)
	default:
		return false
	}
}

// Overlaps reports whether [b.StartAt, b.EndAt) intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}
