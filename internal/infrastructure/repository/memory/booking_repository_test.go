package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
)

func pendingBooking(id string, start time.Time, expiresAt time.Time) booking.Booking {
	return booking.Booking{
		ID:        id,
		CourtID:   CourtIDPalermo1,
		ComplexID: ComplexIDPalermo,
		UserID:    "user-" + id,
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
		Price:     100000,
		Deposit:   20000,
		Status:    booking.StatusPending,
		ExpiresAt: expiresAt,
		CreatedAt: start.Add(-time.Hour),
	}
}

func TestBookingRepository_Create_ConcurrentOverlapSingleWinner(t *testing.T) {
	repo := NewBookingRepository(nil)
	start := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	expires := start.Add(30 * time.Minute)

	const contenders = 16
	var wins, conflicts atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := repo.Create(context.Background(), pendingBooking(fmt.Sprintf("bk-%02d", i), start, expires))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, booking.ErrSlotConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected create error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	if conflicts.Load() != contenders-1 {
		t.Fatalf("expected %d conflicts, got %d", contenders-1, conflicts.Load())
	}
}

func TestBookingRepository_Create_StalePendingDoesNotBlock(t *testing.T) {
	start := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	stale := pendingBooking("bk-stale", start, start.Add(-2*time.Hour))
	repo := NewBookingRepository([]booking.Booking{stale})

	fresh := pendingBooking("bk-fresh", start, start.Add(-30*time.Minute))
	if err := repo.Create(context.Background(), fresh); err != nil {
		t.Fatalf("stale pending must not block the slot: %v", err)
	}
}

func TestBookingRepository_Create_ConfirmedBlocks(t *testing.T) {
	start := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	confirmed := pendingBooking("bk-confirmed", start, time.Time{})
	confirmed.Status = booking.StatusConfirmed
	repo := NewBookingRepository([]booking.Booking{confirmed})

	overlap := pendingBooking("bk-overlap", start.Add(30*time.Minute), start.Add(time.Hour))
	err := repo.Create(context.Background(), overlap)
	if !errors.Is(err, booking.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	adjacent := pendingBooking("bk-adjacent", start.Add(time.Hour), start.Add(90*time.Minute))
	if err := repo.Create(context.Background(), adjacent); err != nil {
		t.Fatalf("adjacent slot must be free: %v", err)
	}
}

func TestBookingRepository_Transition_Guards(t *testing.T) {
	now := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	live := pendingBooking("bk-live", now.Add(2*time.Hour), now.Add(30*time.Minute))
	stale := pendingBooking("bk-stale", now.Add(3*time.Hour), now.Add(-time.Minute))
	repo := NewBookingRepository([]booking.Booking{live, stale})
	ctx := context.Background()

	applied, err := repo.Transition(ctx, "bk-stale", booking.StatusPending, booking.StatusConfirmed, now)
	if err != nil || applied {
		t.Fatalf("expired pending must never confirm: applied=%t err=%v", applied, err)
	}
	applied, err = repo.Transition(ctx, "bk-live", booking.StatusPending, booking.StatusExpired, now)
	if err != nil || applied {
		t.Fatalf("live pending must not expire: applied=%t err=%v", applied, err)
	}

	applied, err = repo.Transition(ctx, "bk-live", booking.StatusPending, booking.StatusConfirmed, now)
	if err != nil || !applied {
		t.Fatalf("live pending must confirm: applied=%t err=%v", applied, err)
	}
	applied, err = repo.Transition(ctx, "bk-live", booking.StatusPending, booking.StatusConfirmed, now)
	if err != nil || applied {
		t.Fatalf("second confirm must be a no-op: applied=%t err=%v", applied, err)
	}

	applied, err = repo.Transition(ctx, "bk-stale", booking.StatusPending, booking.StatusExpired, now)
	if err != nil || !applied {
		t.Fatalf("stale pending must expire: applied=%t err=%v", applied, err)
	}
	applied, err = repo.Transition(ctx, "bk-stale", booking.StatusExpired, booking.StatusConfirmed, now)
	if err != nil || applied {
		t.Fatalf("terminal booking must reject transitions: applied=%t err=%v", applied, err)
	}
}

func TestBookingRepository_Transition_ConcurrentConfirmAndExpire(t *testing.T) {
	now := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	b := pendingBooking("bk-race", now.Add(time.Hour), now.Add(time.Minute))
	repo := NewBookingRepository([]booking.Booking{b})

	var confirms, expires atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if ok, _ := repo.Transition(context.Background(), "bk-race", booking.StatusPending, booking.StatusConfirmed, now); ok {
				confirms.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			if ok, _ := repo.Transition(context.Background(), "bk-race", booking.StatusPending, booking.StatusExpired, now.Add(2*time.Minute)); ok {
				expires.Add(1)
			}
		}()
	}
	wg.Wait()

	if confirms.Load()+expires.Load() != 1 {
		t.Fatalf("expected exactly one applied transition, got confirms=%d expires=%d", confirms.Load(), expires.Load())
	}
}

func TestBookingRepository_SetPaymentRef(t *testing.T) {
	now := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	b := pendingBooking("bk-pay", now.Add(2*time.Hour), now.Add(30*time.Minute))
	repo := NewBookingRepository([]booking.Booking{b})
	ctx := context.Background()

	if err := repo.SetPaymentRef(ctx, "bk-pay", "pref-1", now); err != nil {
		t.Fatalf("set payment ref: %v", err)
	}
	// Same ref again is an idempotent retry.
	if err := repo.SetPaymentRef(ctx, "bk-pay", "pref-1", now); err != nil {
		t.Fatalf("idempotent set payment ref: %v", err)
	}
	if err := repo.SetPaymentRef(ctx, "bk-pay", "pref-2", now); err == nil {
		t.Fatal("expected rejection of a second, different payment ref")
	}

	got, exists, err := repo.GetByPaymentRef(ctx, "pref-1")
	if err != nil || !exists {
		t.Fatalf("get by payment ref: exists=%t err=%v", exists, err)
	}
	if got.ID != "bk-pay" {
		t.Fatalf("expected bk-pay, got %s", got.ID)
	}
}

func TestBookingRepository_ListStalePending(t *testing.T) {
	now := time.Date(2026, 4, 6, 13, 0, 0, 0, time.UTC)
	older := pendingBooking("bk-older", now.Add(time.Hour), now.Add(-2*time.Hour))
	newer := pendingBooking("bk-newer", now.Add(2*time.Hour), now.Add(-time.Hour))
	live := pendingBooking("bk-live", now.Add(3*time.Hour), now.Add(time.Hour))
	repo := NewBookingRepository([]booking.Booking{newer, live, older})

	stale, err := repo.ListStalePending(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list stale pending: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale bookings, got %d", len(stale))
	}
	if stale[0].ID != "bk-older" || stale[1].ID != "bk-newer" {
		t.Fatalf("expected oldest expiry first, got %s then %s", stale[0].ID, stale[1].ID)
	}

	capped, err := repo.ListStalePending(context.Background(), now, 1)
	if err != nil || len(capped) != 1 {
		t.Fatalf("expected limit to cap results: len=%d err=%v", len(capped), err)
	}
}
