package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/infrastructure/repository/memory"
)

func buenosAires(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	return loc
}

func newAvailabilityFixture(t *testing.T, bookings []booking.Booking) (*AvailabilityService, *memory.BookingRepository) {
	t.Helper()

	bookingRepo := memory.NewBookingRepository(bookings)
	svc := NewAvailabilityService(
		memory.SeedVenueRepository(),
		memory.NewCourtRepository(memory.SeedCourts(), memory.SeedPriceRules()),
		bookingRepo,
		court.TieBreakEarliestCreated,
		2,
	)

	return svc, bookingRepo
}

func TestComputeAvailability_PricesAndOrdering(t *testing.T) {
	loc := buenosAires(t)
	from := time.Date(2026, 4, 6, 0, 0, 0, 0, loc).UTC()
	to := from.Add(24 * time.Hour)

	svc, _ := newAvailabilityFixture(t, nil)
	slots, err := svc.ComputeAvailability(context.Background(), AvailabilityInput{
		CourtID: memory.CourtIDPalermo1,
		From:    from,
		To:      to,
	})
	if err != nil {
		t.Fatalf("compute availability: %v", err)
	}

	// 08:00 to 22:00 local at 60 minutes per slot.
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].StartAt.Before(slots[i].StartAt) {
			t.Fatal("slots must be ordered by start time")
		}
	}

	first := slots[0]
	if !first.StartAt.Equal(time.Date(2026, 4, 6, 8, 0, 0, 0, loc).UTC()) {
		t.Fatalf("first slot at %s, expected 08:00 local", first.StartAt)
	}
	if first.Price != 100000 || first.Deposit != 20000 {
		t.Fatalf("daytime slot priced %d/%d, expected 100000/20000", first.Price, first.Deposit)
	}

	evening := slots[10] // 18:00 local
	if evening.Price != 150000 || evening.Deposit != 30000 {
		t.Fatalf("evening slot priced %d/%d, expected 150000/30000", evening.Price, evening.Deposit)
	}

	for _, slot := range slots {
		if slot.Status != SlotOpen {
			t.Fatalf("slot %s unexpectedly %s on an empty calendar", slot.StartAt, slot.Status)
		}
	}
}

func TestComputeAvailability_BlockingBookings(t *testing.T) {
	loc := buenosAires(t)
	from := time.Date(2026, 4, 6, 0, 0, 0, 0, loc).UTC()
	to := from.Add(24 * time.Hour)
	now := time.Date(2026, 4, 6, 9, 0, 0, 0, loc).UTC()

	confirmedStart := time.Date(2026, 4, 6, 10, 0, 0, 0, loc).UTC()
	pendingStart := time.Date(2026, 4, 6, 12, 0, 0, 0, loc).UTC()
	staleStart := time.Date(2026, 4, 6, 14, 0, 0, 0, loc).UTC()

	svc, _ := newAvailabilityFixture(t, []booking.Booking{
		{ID: "bk-confirmed", CourtID: memory.CourtIDPalermo1, ComplexID: memory.ComplexIDPalermo, UserID: "u1",
			StartAt: confirmedStart, EndAt: confirmedStart.Add(time.Hour), Status: booking.StatusConfirmed},
		{ID: "bk-pending", CourtID: memory.CourtIDPalermo1, ComplexID: memory.ComplexIDPalermo, UserID: "u2",
			StartAt: pendingStart, EndAt: pendingStart.Add(time.Hour), Status: booking.StatusPending, ExpiresAt: now.Add(20 * time.Minute)},
		{ID: "bk-stale", CourtID: memory.CourtIDPalermo1, ComplexID: memory.ComplexIDPalermo, UserID: "u3",
			StartAt: staleStart, EndAt: staleStart.Add(time.Hour), Status: booking.StatusPending, ExpiresAt: now.Add(-time.Minute)},
		{ID: "bk-cancelled", CourtID: memory.CourtIDPalermo1, ComplexID: memory.ComplexIDPalermo, UserID: "u4",
			StartAt: staleStart.Add(2 * time.Hour), EndAt: staleStart.Add(3 * time.Hour), Status: booking.StatusCancelled},
	})
	svc.now = func() time.Time { return now }

	slots, err := svc.ComputeAvailability(context.Background(), AvailabilityInput{
		CourtID: memory.CourtIDPalermo1,
		From:    from,
		To:      to,
	})
	if err != nil {
		t.Fatalf("compute availability: %v", err)
	}

	statusAt := func(start time.Time) SlotStatus {
		for _, slot := range slots {
			if slot.StartAt.Equal(start) {
				return slot.Status
			}
		}
		t.Fatalf("no slot at %s", start)
		return ""
	}

	if statusAt(confirmedStart) != SlotTaken {
		t.Fatal("confirmed booking must mark its slot taken")
	}
	if statusAt(pendingStart) != SlotTaken {
		t.Fatal("live pending booking must mark its slot taken")
	}
	if statusAt(staleStart) != SlotOpen {
		t.Fatal("stale pending booking must leave its slot open before the sweep")
	}
	if statusAt(staleStart.Add(2*time.Hour)) != SlotOpen {
		t.Fatal("cancelled booking must leave its slot open")
	}
}

func TestComputeAvailability_InputValidation(t *testing.T) {
	svc, _ := newAvailabilityFixture(t, nil)
	ctx := context.Background()
	from := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

	_, err := svc.ComputeAvailability(ctx, AvailabilityInput{CourtID: "", From: from, To: from.Add(time.Hour)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing court, got %v", err)
	}

	_, err = svc.ComputeAvailability(ctx, AvailabilityInput{CourtID: memory.CourtIDPalermo1, From: from, To: from})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty range, got %v", err)
	}

	_, err = svc.ComputeAvailability(ctx, AvailabilityInput{CourtID: memory.CourtIDPalermo1, From: from, To: from.Add(40 * 24 * time.Hour)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized range, got %v", err)
	}

	_, err = svc.ComputeAvailability(ctx, AvailabilityInput{CourtID: "ct-unknown", From: from, To: from.Add(time.Hour)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown court, got %v", err)
	}
}

func TestComputeComplexAvailability_FanOut(t *testing.T) {
	loc := buenosAires(t)
	from := time.Date(2026, 4, 6, 0, 0, 0, 0, loc).UTC()
	to := from.Add(24 * time.Hour)

	svc, _ := newAvailabilityFixture(t, nil)
	results, err := svc.ComputeComplexAvailability(context.Background(), ComplexAvailabilityInput{
		ComplexID: memory.ComplexIDPalermo,
		From:      from,
		To:        to,
	})
	if err != nil {
		t.Fatalf("compute complex availability: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 courts, got %d", len(results))
	}
	if results[0].CourtID != memory.CourtIDPalermo1 || results[1].CourtID != memory.CourtIDPalermo2 {
		t.Fatalf("court order must follow the repository listing, got %s then %s", results[0].CourtID, results[1].CourtID)
	}
	if len(results[0].Slots) != 14 {
		t.Fatalf("expected 14 slots for %s, got %d", results[0].CourtID, len(results[0].Slots))
	}
	// 09:00 to 21:00 local at 90 minutes per slot.
	if len(results[1].Slots) != 8 {
		t.Fatalf("expected 8 slots for %s, got %d", results[1].CourtID, len(results[1].Slots))
	}

	_, err = svc.ComputeComplexAvailability(context.Background(), ComplexAvailabilityInput{
		ComplexID: "cx-unknown", From: from, To: to,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown complex, got %v", err)
	}
}
