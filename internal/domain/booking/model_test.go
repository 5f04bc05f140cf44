package booking

import (
	"testing"
	"time"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusConfirmed, StatusExpired, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusExpired, StatusConfirmed, false},
		{StatusExpired, StatusCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%t, got %t", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestBooking_Blocks(t *testing.T) {
	now := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

	pendingLive := Booking{Status: StatusPending, ExpiresAt: now.Add(10 * time.Minute)}
	if !pendingLive.Blocks(now) {
		t.Fatal("unexpired pending booking must block its slot")
	}

	pendingStale := Booking{Status: StatusPending, ExpiresAt: now.Add(-time.Minute)}
	if pendingStale.Blocks(now) {
		t.Fatal("stale pending booking must not block even before the sweep runs")
	}

	if !(Booking{Status: StatusConfirmed}).Blocks(now) {
		t.Fatal("confirmed booking must block")
	}
	if (Booking{Status: StatusCancelled}).Blocks(now) {
		t.Fatal("cancelled booking must not block")
	}
	if (Booking{Status: StatusExpired}).Blocks(now) {
		t.Fatal("expired booking must not block")
	}
}

func TestBooking_Overlaps(t *testing.T) {
	start := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	b := Booking{StartAt: start, EndAt: start.Add(time.Hour)}

	if !b.Overlaps(start.Add(30*time.Minute), start.Add(90*time.Minute)) {
		t.Fatal("expected partial overlap to match")
	}
	if b.Overlaps(start.Add(time.Hour), start.Add(2*time.Hour)) {
		t.Fatal("adjacent intervals must not overlap")
	}
	if b.Overlaps(start.Add(-time.Hour), start) {
		t.Fatal("interval ending at start must not overlap")
	}
}
